// Package config loads the project configuration for bootstrap runs.
// Settings come from an optional runway.yaml file, a .env file, and
// environment variables. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// Environment variable names recognized by Load.
const (
	EnvStripeKey  = "STRIPE_SECRET_KEY"
	EnvProjectID  = "RUNWAY_PROJECT_ID"
	EnvProducts   = "RUNWAY_PRODUCTS"
	EnvWebhookURL = "RUNWAY_WEBHOOK_URL"
	EnvLogLevel   = "LOG_LEVEL"
)

// Default config file names probed when no --config flag is given.
var defaultConfigFiles = []string{"runway.yaml", "runway.yml"}

// Duration wraps time.Duration so YAML values like "2s" decode.
type Duration time.Duration

// UnmarshalYAML accepts duration strings and integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the resolved project configuration.
type Config struct {
	// ProjectID namespaces every provisioning key and resource name.
	ProjectID string `yaml:"project_id" validate:"required"`

	// Products is the catalog document, either the compact grammar or a
	// JSON array. When set it wins over ProductsFile.
	Products string `yaml:"products"`

	// ProductsFile is a path to a file holding the catalog document.
	ProductsFile string `yaml:"products_file"`

	// Webhook configures webhook endpoint provisioning.
	Webhook WebhookConfig `yaml:"webhook"`

	// Stripe configures the billing provider client.
	Stripe StripeConfig `yaml:"stripe"`

	// Edge configures the edge resource planner.
	Edge EdgeConfig `yaml:"edge"`

	// Policy configures the plan gate.
	Policy PolicyConfig `yaml:"policy"`

	// Output configures run report artifacts.
	Output OutputConfig `yaml:"output"`

	// Logging configures log verbosity and format.
	Logging LoggingConfig `yaml:"logging"`
}

// WebhookConfig configures webhook endpoint provisioning.
type WebhookConfig struct {
	// URL is the endpoint URL. Empty disables webhook provisioning.
	URL string `yaml:"url" validate:"omitempty,url"`
}

// StripeConfig configures the billing provider client.
type StripeConfig struct {
	// APIKey is the secret API key. Usually supplied via the
	// STRIPE_SECRET_KEY environment variable rather than the file.
	APIKey string `yaml:"api_key"`

	// MaxRetries bounds retry attempts for transient provider failures.
	MaxRetries int `yaml:"max_retries" validate:"gte=0,lte=10"`

	// RetryDelay is the base delay before the first retry.
	RetryDelay Duration `yaml:"retry_delay" validate:"gte=0"`
}

// EdgeConfig configures the edge resource planner.
type EdgeConfig struct {
	// DatabaseName overrides the default "<projectID>-d1" database name.
	DatabaseName string `yaml:"database_name"`

	// BucketName overrides the default "<projectID>-assets" bucket name.
	BucketName string `yaml:"bucket_name"`
}

// PolicyConfig configures the plan gate.
type PolicyConfig struct {
	// Paths are extra .rego or .json policy files or directories loaded
	// on top of the built-in policies.
	Paths []string `yaml:"paths"`
}

// OutputConfig configures run report artifacts.
type OutputConfig struct {
	// Dir is the directory run reports are written to. Empty disables
	// report writing.
	Dir string `yaml:"dir"`
}

// LoggingConfig configures log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

var validate = validator.New()

// Load resolves the configuration. It loads .env into the process
// environment, reads the YAML config file when present, applies
// environment overrides, and validates the result.
//
// path may be empty, in which case runway.yaml and runway.yml in the
// working directory are probed.
func Load(path string) (*Config, error) {
	// A missing .env file is fine; any other read error is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	resolved, required := path, path != ""
	if !required {
		for _, candidate := range defaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				resolved = candidate
				break
			}
		}
	}
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", resolved, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", resolved, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config with default knobs set.
func defaults() *Config {
	return &Config{
		Stripe: StripeConfig{
			MaxRetries: 3,
			RetryDelay: Duration(time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvProjectID); v != "" {
		cfg.ProjectID = v
	}
	if v := os.Getenv(EnvProducts); v != "" {
		cfg.Products = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv(EnvStripeKey); v != "" {
		cfg.Stripe.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RUNWAY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stripe.MaxRetries = n
		}
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireStripeKey errors when no API key is configured. Dry runs
// against an empty account snapshot do not need one, live runs do.
func (c *Config) RequireStripeKey() error {
	if c.Stripe.APIKey == "" {
		return fmt.Errorf("no Stripe API key configured, set %s", EnvStripeKey)
	}
	return nil
}

// CatalogDocument returns the raw catalog document. Inline products win
// over a products file.
func (c *Config) CatalogDocument() (string, error) {
	if c.Products != "" {
		return c.Products, nil
	}
	if c.ProductsFile != "" {
		data, err := os.ReadFile(c.ProductsFile)
		if err != nil {
			return "", fmt.Errorf("failed to read products file %s: %w", c.ProductsFile, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no products configured, set products or products_file")
}

// Catalog resolves and parses the desired product catalog.
func (c *Config) Catalog() ([]catalog.Product, error) {
	doc, err := c.CatalogDocument()
	if err != nil {
		return nil, err
	}
	return catalog.Parse(doc)
}
