package engine

import (
	"fmt"
	"strings"
)

// FormatPlan renders a plan as human-readable text for CLI output. It is
// pure and never fails; a malformed plan is a programmer error caught
// upstream.
func FormatPlan(plan *Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Provider: %s\n", plan.Provider)
	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "  %s: %s - %s\n", step.Status, step.Title, step.Detail)
	}

	if len(plan.Notes) > 0 {
		b.WriteString("Notes:\n")
		for _, note := range plan.Notes {
			fmt.Fprintf(&b, "  %s\n", note)
		}
	}

	if len(plan.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, warning := range plan.Warnings {
			fmt.Fprintf(&b, "  %s\n", warning)
		}
	}

	return b.String()
}

// FormatResult renders an execution result as human-readable text.
func FormatResult(result *ExecutionResult) string {
	var b strings.Builder

	mode := "apply"
	if result.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "Project %s (%s)\n", result.ProjectID, mode)

	for _, product := range result.Products {
		if product.Err != "" {
			fmt.Fprintf(&b, "  %s: FAILED - %s\n", product.Name, product.Err)
			continue
		}
		fmt.Fprintf(&b, "  %s: product=%s prices=%s\n",
			product.Name, product.ProductID, strings.Join(product.PriceIDs, ","))
	}

	if result.Webhook != nil {
		switch {
		case result.Webhook.Err != "":
			fmt.Fprintf(&b, "  webhook: FAILED - %s\n", result.Webhook.Err)
		case result.Webhook.Secret != "":
			fmt.Fprintf(&b, "  webhook: %s (secret issued)\n", result.Webhook.WebhookID)
		default:
			fmt.Fprintf(&b, "  webhook: %s\n", result.Webhook.WebhookID)
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&b, "  %s\n", warning)
		}
	}

	return b.String()
}
