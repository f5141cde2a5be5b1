package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/runwaylabs/runway/pkg/catalog"
	"github.com/runwaylabs/runway/pkg/engine"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func cleanInput() *Input {
	return &Input{
		Plan: &engine.Plan{
			Provider: engine.ProviderStripe,
			Steps: []engine.PlanStep{
				{ID: "product:Founders", Status: engine.StepCreate},
			},
			CreatedAt: time.Now(),
		},
		Products: []catalog.Product{
			{
				Name: "Founders",
				Prices: []catalog.Price{
					{Amount: 2500, Currency: "usd", Interval: catalog.IntervalMonth, IntervalCount: 1},
				},
			},
		},
		WebhookURL: "https://example.com/api/webhooks/stripe",
		Context:    &Context{ProjectID: "proj_123", Operation: "plan", Timestamp: time.Now()},
	}
}

func TestCleanPlanIsAllowed(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.EvaluatePlan(context.Background(), cleanInput())
	if err != nil {
		t.Fatalf("EvaluatePlan: %v", err)
	}
	if !result.Allowed {
		t.Errorf("clean plan must be allowed, violations: %+v", result.Violations)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected evaluation warnings: %v", result.Warnings)
	}
}

func TestProductNameWithDelimiterIsDenied(t *testing.T) {
	e := newTestEngine(t)

	for _, name := range []string{"Founders:Plus", "Founders;Plus"} {
		input := cleanInput()
		input.Products[0].Name = name

		result, err := e.EvaluatePlan(context.Background(), input)
		if err != nil {
			t.Fatalf("EvaluatePlan: %v", err)
		}
		if result.Allowed {
			t.Errorf("name %q must be denied", name)
		}
		blocking := result.Blocking()
		if len(blocking) != 1 {
			t.Fatalf("name %q: blocking violations = %d, want 1", name, len(blocking))
		}
		if blocking[0].Policy != "catalog-naming" {
			t.Errorf("violation policy = %q, want catalog-naming", blocking[0].Policy)
		}
	}
}

func TestPlainHTTPWebhookIsDenied(t *testing.T) {
	e := newTestEngine(t)

	input := cleanInput()
	input.WebhookURL = "http://example.com/api/webhooks/stripe"

	result, err := e.EvaluatePlan(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluatePlan: %v", err)
	}
	if result.Allowed {
		t.Error("plain http webhook must be denied")
	}
	blocking := result.Blocking()
	if len(blocking) != 1 || blocking[0].Step != "webhook" {
		t.Errorf("blocking = %+v, want one webhook violation", blocking)
	}
}

func TestLocalhostWebhookIsAllowed(t *testing.T) {
	e := newTestEngine(t)

	for _, url := range []string{
		"http://localhost:3000/api/webhooks/stripe",
		"http://127.0.0.1:3000/api/webhooks/stripe",
	} {
		input := cleanInput()
		input.WebhookURL = url

		result, err := e.EvaluatePlan(context.Background(), input)
		if err != nil {
			t.Fatalf("EvaluatePlan: %v", err)
		}
		if !result.Allowed {
			t.Errorf("url %q must be allowed, violations: %+v", url, result.Violations)
		}
	}
}

func TestHugeAmountWarnsButDoesNotBlock(t *testing.T) {
	e := newTestEngine(t)

	input := cleanInput()
	input.Products[0].Prices[0].Amount = 2500000

	result, err := e.EvaluatePlan(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluatePlan: %v", err)
	}
	if !result.Allowed {
		t.Error("warning-severity violations must not block the plan")
	}

	var found bool
	for _, v := range result.Violations {
		if v.Policy == "price-sanity" && v.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("expected price-sanity warning, got %+v", result.Violations)
	}
}

func TestLargePlanWarns(t *testing.T) {
	e := newTestEngine(t)

	input := cleanInput()
	input.Plan.Steps = nil
	for i := 0; i < 30; i++ {
		input.Plan.Steps = append(input.Plan.Steps, engine.PlanStep{
			ID:     "product:p" + string(rune('a'+i%26)),
			Status: engine.StepCreate,
		})
	}

	result, err := e.EvaluatePlan(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluatePlan: %v", err)
	}
	if !result.Allowed {
		t.Error("churn warning must not block")
	}

	var found bool
	for _, v := range result.Violations {
		if v.Policy == "plan-churn" {
			found = true
			if !strings.Contains(v.Message, "30") {
				t.Errorf("churn message %q does not carry the create count", v.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected plan-churn warning, got %+v", result.Violations)
	}
}

func TestLoadCustomRegoPolicy(t *testing.T) {
	dir := t.TempDir()
	policyFile := filepath.Join(dir, "currency-allowlist.rego")
	content := `# Restricts the catalog to usd and eur
# severity: error
package runway.policies.currency

import rego.v1

deny contains violation if {
	some product in input.products
	some price in product.prices
	not price.currency in {"usd", "eur"}
	violation := {
		"message": sprintf("Currency %q is not allowed", [price.currency]),
		"severity": "error",
	}
}
`
	if err := os.WriteFile(policyFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t)
	if err := e.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}

	loaded, err := e.GetPolicy("currency-allowlist")
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if loaded.Severity != SeverityError {
		t.Errorf("severity = %q, want error from directive", loaded.Severity)
	}
	if !strings.Contains(loaded.Description, "usd and eur") {
		t.Errorf("description = %q, want leading comment text", loaded.Description)
	}

	input := cleanInput()
	input.Products[0].Prices[0].Currency = "gbp"

	result, err := e.EvaluatePlan(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluatePlan: %v", err)
	}
	if result.Allowed {
		t.Error("gbp price must be denied by the loaded policy")
	}
}

func TestInvalidRegoIsRejected(t *testing.T) {
	dir := t.TempDir()
	policyFile := filepath.Join(dir, "broken.rego")
	if err := os.WriteFile(policyFile, []byte("this is not rego"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t)
	if err := e.LoadPolicies(context.Background(), []string{policyFile}); err == nil {
		t.Error("expected compile error for broken policy")
	}
}

func TestListPoliciesIncludesBuiltins(t *testing.T) {
	e := newTestEngine(t)

	names := make(map[string]bool)
	for _, p := range e.ListPolicies() {
		names[p.Name] = true
	}
	for _, want := range []string{"catalog-naming", "webhook-transport", "price-sanity", "plan-churn"} {
		if !names[want] {
			t.Errorf("built-in policy %q not listed", want)
		}
	}
}
