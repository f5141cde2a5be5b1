package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/runwaylabs/runway/pkg/catalog"
	"github.com/runwaylabs/runway/pkg/config"
	"github.com/runwaylabs/runway/pkg/engine"
	"github.com/runwaylabs/runway/pkg/policy"
)

func newPlanCommand() *cobra.Command {
	var (
		products   string
		webhookURL string
		skipEdge   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the provisioning actions a run would take",
		Long: `Survey the Stripe account and diff it against the desired catalog.

The plan:
  - Lists remote products, prices, and webhook endpoints
  - Matches them to desired state via idempotency-key metadata
  - Marks each resource create, update, or existing
  - Flags price drift and duplicate webhook endpoints as warnings
  - Never mutates remote state`,
		Example: `  # Plan with the configured catalog
  runway plan

  # Plan an inline catalog
  runway plan --products "Founders:2500,usd,month;Scale:4900,usd,month"

  # Plan including the webhook endpoint
  runway plan --webhook-url https://example.com/api/webhooks/stripe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			desired, err := resolveDesired(cfg, products)
			if err != nil {
				return err
			}
			if webhookURL == "" {
				webhookURL = cfg.Webhook.URL
			}

			client, err := newBillingClient(cfg, logger)
			if err != nil {
				return err
			}

			planner := engine.NewPlanner(client, logger)
			plan, err := planner.BuildPlan(ctx, cfg.ProjectID, desired, engine.Options{
				WebhookURL: webhookURL,
			})
			if err != nil {
				return err
			}

			gate, err := evaluateGate(ctx, cfg, logger, plan, desired, webhookURL, "plan")
			if err != nil {
				return err
			}

			var edgePlan *engine.Plan
			if !skipEdge {
				edgePlan = engine.BuildEdgePlan(engine.EdgeOptions{
					ProjectID:    cfg.ProjectID,
					DatabaseName: cfg.Edge.DatabaseName,
					BucketName:   cfg.Edge.BucketName,
				})
			}

			if jsonOutput {
				return printJSON(cmd, struct {
					Plan     *engine.Plan   `json:"plan"`
					EdgePlan *engine.Plan   `json:"edge_plan,omitempty"`
					Policy   *policy.Result `json:"policy"`
				}{plan, edgePlan, gate})
			}

			cmd.Print(engine.FormatPlan(plan))
			if edgePlan != nil {
				cmd.Println()
				cmd.Print(engine.FormatPlan(edgePlan))
			}
			printGate(cmd, gate)

			create, update, existing := plan.Summary()
			cmd.Printf("\nSummary: %d to create, %d to update, %d up to date\n", create, update, existing)
			return nil
		},
	}

	cmd.Flags().StringVar(&products, "products", "", "inline catalog overriding the configured one")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "webhook endpoint URL overriding the configured one")
	cmd.Flags().BoolVar(&skipEdge, "skip-edge", false, "omit the edge resource plan")

	return cmd
}

// resolveDesired yields the desired catalog, preferring an inline flag
// value over the configuration.
func resolveDesired(cfg *config.Config, inline string) ([]catalog.Product, error) {
	if inline != "" {
		return catalog.Parse(inline)
	}
	return cfg.Catalog()
}

// evaluateGate runs the policy gate over a plan.
func evaluateGate(ctx context.Context, cfg *config.Config, logger zerolog.Logger, plan *engine.Plan, desired []catalog.Product, webhookURL, operation string) (*policy.Result, error) {
	gate, err := newPolicyEngine(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return gate.EvaluatePlan(ctx, &policy.Input{
		Plan:       plan,
		Products:   desired,
		WebhookURL: webhookURL,
		Context: &policy.Context{
			ProjectID: cfg.ProjectID,
			Operation: operation,
			Timestamp: time.Now().UTC(),
		},
	})
}

// printGate renders policy findings for humans.
func printGate(cmd *cobra.Command, result *policy.Result) {
	if result == nil || len(result.Violations) == 0 {
		return
	}
	cmd.Println("Policy findings:")
	for _, v := range result.Violations {
		cmd.Printf("  [%s] %s: %s\n", v.Severity, v.Policy, v.Message)
	}
	if !result.Allowed {
		cmd.Println("  apply will be blocked until error findings are resolved")
	}
}

// printJSON writes the value as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
