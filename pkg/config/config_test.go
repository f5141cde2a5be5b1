package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir moves the test into a scratch directory so Load does not pick
// up stray runway.yaml or .env files from the repo.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvStripeKey, EnvProjectID, EnvProducts, EnvWebhookURL, EnvLogLevel, "RUNWAY_MAX_RETRIES"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	content := `project_id: proj_abc
products: "Founders:2500,usd,month"
webhook:
  url: https://example.com/api/webhooks/stripe
stripe:
  max_retries: 5
  retry_delay: 2s
edge:
  database_name: custom-db
output:
  dir: reports
`
	if err := os.WriteFile(filepath.Join(dir, "runway.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectID != "proj_abc" {
		t.Errorf("ProjectID = %q", cfg.ProjectID)
	}
	if cfg.Stripe.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Stripe.MaxRetries)
	}
	if cfg.Stripe.RetryDelay.Std() != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.Stripe.RetryDelay)
	}
	if cfg.Edge.DatabaseName != "custom-db" {
		t.Errorf("DatabaseName = %q", cfg.Edge.DatabaseName)
	}
	if cfg.Output.Dir != "reports" {
		t.Errorf("Output.Dir = %q", cfg.Output.Dir)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	content := `project_id: proj_from_file
products: "Founders:2500,usd,month"
`
	if err := os.WriteFile(filepath.Join(dir, "runway.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvProjectID, "proj_from_env")
	t.Setenv(EnvStripeKey, "sk_test_123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectID != "proj_from_env" {
		t.Errorf("ProjectID = %q, want env value", cfg.ProjectID)
	}
	if cfg.Stripe.APIKey != "sk_test_123" {
		t.Errorf("APIKey = %q, want env value", cfg.Stripe.APIKey)
	}
}

func TestDotEnvIsLoaded(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	envContent := "RUNWAY_PROJECT_ID=proj_dotenv\nSTRIPE_SECRET_KEY=sk_test_dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectID != "proj_dotenv" {
		t.Errorf("ProjectID = %q, want .env value", cfg.ProjectID)
	}
	if cfg.Stripe.APIKey != "sk_test_dotenv" {
		t.Errorf("APIKey = %q, want .env value", cfg.Stripe.APIKey)
	}
}

func TestMissingProjectIDFailsValidation(t *testing.T) {
	chdir(t)
	clearEnv(t)

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error for missing project_id")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestInvalidWebhookURLIsRejected(t *testing.T) {
	chdir(t)
	clearEnv(t)
	t.Setenv(EnvProjectID, "proj_abc")
	t.Setenv(EnvWebhookURL, "not a url")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for malformed webhook url")
	}
}

func TestDefaultsApply(t *testing.T) {
	chdir(t)
	clearEnv(t)
	t.Setenv(EnvProjectID, "proj_abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stripe.MaxRetries != 3 {
		t.Errorf("default MaxRetries = %d, want 3", cfg.Stripe.MaxRetries)
	}
	if cfg.Stripe.RetryDelay.Std() != time.Second {
		t.Errorf("default RetryDelay = %v, want 1s", cfg.Stripe.RetryDelay)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("default logging = %+v", cfg.Logging)
	}
}

func TestCatalogDocumentResolution(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	productsFile := filepath.Join(dir, "products.json")
	if err := os.WriteFile(productsFile, []byte(`[{"name":"Scale","prices":[{"amount":4900,"currency":"usd","interval":"month"}]}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	cfg.ProjectID = "proj_abc"
	cfg.ProductsFile = productsFile

	products, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Scale" {
		t.Errorf("products = %+v", products)
	}

	// Inline wins over the file.
	cfg.Products = "Founders:2500,usd,month"
	products, err = cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Founders" {
		t.Errorf("inline products must win, got %+v", products)
	}
}

func TestCatalogWithoutProductsErrors(t *testing.T) {
	cfg := defaults()
	cfg.ProjectID = "proj_abc"

	if _, err := cfg.Catalog(); err == nil {
		t.Fatal("expected error when no products are configured")
	}
}

func TestRequireStripeKey(t *testing.T) {
	cfg := defaults()
	if err := cfg.RequireStripeKey(); err == nil {
		t.Error("expected error for empty key")
	}
	cfg.Stripe.APIKey = "sk_test_123"
	if err := cfg.RequireStripeKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
