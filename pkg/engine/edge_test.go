package engine

import (
	"strings"
	"testing"
)

func TestBuildEdgePlanDefaults(t *testing.T) {
	plan := BuildEdgePlan(EdgeOptions{ProjectID: "acme"})

	if plan.Provider != ProviderCloudflare {
		t.Errorf("unexpected provider %q", plan.Provider)
	}

	wantIDs := []string{"worker", "d1", "r2"}
	if len(plan.Steps) != len(wantIDs) {
		t.Fatalf("expected %d fixed steps, got %d", len(wantIDs), len(plan.Steps))
	}
	for i, want := range wantIDs {
		if plan.Steps[i].ID != want {
			t.Errorf("step %d: expected %q, got %q", i, want, plan.Steps[i].ID)
		}
	}

	if !strings.Contains(plan.Steps[1].Title, "acme-d1") {
		t.Errorf("default database name not resolved: %q", plan.Steps[1].Title)
	}
	if !strings.Contains(plan.Steps[2].Title, "acme-assets") {
		t.Errorf("default bucket name not resolved: %q", plan.Steps[2].Title)
	}

	notes := strings.Join(plan.Notes, "\n")
	for _, want := range []string{"project: acme", "acme-d1 (default)", "acme-assets (default)"} {
		if !strings.Contains(notes, want) {
			t.Errorf("notes missing %q:\n%s", want, notes)
		}
	}
}

func TestBuildEdgePlanExplicitNames(t *testing.T) {
	plan := BuildEdgePlan(EdgeOptions{
		ProjectID:    "acme",
		DatabaseName: "acme-prod-db",
		BucketName:   "acme-prod-files",
	})

	if !strings.Contains(plan.Steps[1].Title, "acme-prod-db") {
		t.Errorf("explicit database name not used: %q", plan.Steps[1].Title)
	}
	notes := strings.Join(plan.Notes, "\n")
	if strings.Contains(notes, "(default)") {
		t.Errorf("explicit names must not be marked default:\n%s", notes)
	}
}

func TestBuildEdgePlanDeterministic(t *testing.T) {
	first := BuildEdgePlan(EdgeOptions{ProjectID: "acme"})
	second := BuildEdgePlan(EdgeOptions{ProjectID: "acme"})

	for i := range first.Steps {
		if first.Steps[i].ID != second.Steps[i].ID || first.Steps[i].Detail != second.Steps[i].Detail {
			t.Errorf("edge plan not deterministic at step %d", i)
		}
	}
}
