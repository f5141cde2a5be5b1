package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runwaylabs/runway/pkg/engine"
	"github.com/runwaylabs/runway/pkg/report"
	"github.com/runwaylabs/runway/pkg/telemetry"
)

func newApplyCommand() *cobra.Command {
	var (
		dryRun     bool
		force      bool
		trace      bool
		products   string
		webhookURL string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the catalog against the Stripe account",
		Long: `Apply the provisioning plan: create missing products, prices, and
the webhook endpoint, tagging each with its idempotency key.

Each product and its prices form one chain. A provider failure aborts
the rest of that chain but other chains still run; re-running apply
resumes from whatever was provisioned. Nothing is rolled back.

With --dry-run no mutating call is made and placeholder identifiers
are reported instead.`,
		Example: `  # Apply the configured catalog
  runway apply

  # Preview without mutating anything
  runway apply --dry-run

  # Apply and write run reports
  runway apply --out reports/`,
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
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			client, err := newBillingClient(cfg, logger)
			if err != nil {
				return err
			}
			opts := engine.Options{DryRun: dryRun, WebhookURL: webhookURL}

			// Gate the run on a read-only plan before any mutation.
			planner := engine.NewPlanner(client, logger)
			plan, err := planner.BuildPlan(ctx, cfg.ProjectID, desired, opts)
			if err != nil {
				return err
			}
			gate, err := evaluateGate(ctx, cfg, logger, plan, desired, webhookURL, "apply")
			if err != nil {
				return err
			}
			printGate(cmd, gate)
			if !gate.Allowed && !force {
				return fmt.Errorf("apply blocked by policy, %d error finding(s)", len(gate.Blocking()))
			}

			exporter := "none"
			if trace {
				exporter = "stdout"
			}
			tracer, err := telemetry.NewTracer(telemetry.TracingConfig{
				Enabled:      trace,
				Exporter:     exporter,
				SamplingRate: 1.0,
			}, "runway", cmd.Root().Version, "cli")
			if err != nil {
				return err
			}
			defer func() { _ = tracer.Shutdown(ctx) }()

			runStamp := report.NewRunStamp(time.Now())
			runCtx, span := tracer.StartRunSpan(ctx, cfg.ProjectID, runStamp, dryRun)

			executor := engine.NewExecutor(client, logger)
			result, appliedPlan, err := executor.Execute(runCtx, cfg.ProjectID, desired, opts)
			if err != nil {
				telemetry.RecordError(span, err)
				span.End()
				return err
			}
			result.RunStamp = runStamp
			telemetry.RecordSuccess(span)
			span.End()

			if outDir != "" {
				writer := report.NewWriter(outDir, logger)
				jsonPath, textPath, err := writer.Write(result, appliedPlan)
				if err != nil {
					return err
				}
				logger.Info().Str("json", jsonPath).Str("text", textPath).Msg("reports written")
			}

			if jsonOutput {
				if err := printJSON(cmd, result); err != nil {
					return err
				}
			} else {
				cmd.Print(engine.FormatResult(result))
			}

			if result.Failed() {
				return fmt.Errorf("run completed with failures, re-run apply to resume")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan and report without mutating remote state")
	cmd.Flags().BoolVar(&force, "force", false, "apply even when policy findings block the run")
	cmd.Flags().BoolVar(&trace, "trace", false, "emit run trace spans to stdout")
	cmd.Flags().StringVar(&products, "products", "", "inline catalog overriding the configured one")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "webhook endpoint URL overriding the configured one")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for run report artifacts")

	return cmd
}
