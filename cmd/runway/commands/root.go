package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/runwaylabs/runway/pkg/billing"
	"github.com/runwaylabs/runway/pkg/config"
	"github.com/runwaylabs/runway/pkg/policy"
	"github.com/runwaylabs/runway/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "runway",
		Short: "Runway - SaaS provisioning reconciler",
		Long: `Runway reconciles a declarative product catalog against a Stripe
account and plans the edge resources a deployment needs.

State lives in provider-side metadata: every resource runway creates is
tagged with an idempotency key, so repeated runs converge instead of
duplicating resources.

Features:
  - Catalog in a compact grammar or JSON
  - Diff-based plans: create, update, existing
  - Price drift detection (prices are immutable, drift creates anew)
  - Webhook endpoint provisioning with event reconciliation
  - Policy gate on plans via OPA/Rego
  - Edge plan for Cloudflare worker, D1 database, and R2 bucket`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// loadConfig resolves the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the command logger from config, honoring --verbose.
func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
}

// newBillingClient builds the Stripe client. It fails without an API key.
func newBillingClient(cfg *config.Config, logger zerolog.Logger) (*billing.StripeClient, error) {
	if err := cfg.RequireStripeKey(); err != nil {
		return nil, err
	}
	return billing.NewStripeClient(billing.Config{
		APIKey:     cfg.Stripe.APIKey,
		MaxRetries: cfg.Stripe.MaxRetries,
		RetryDelay: cfg.Stripe.RetryDelay.Std(),
		Logger:     logger,
	}), nil
}

// newPolicyEngine builds the plan gate with builtin and configured policies.
func newPolicyEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*policy.Engine, error) {
	eng, err := policy.NewEngine(logger)
	if err != nil {
		return nil, err
	}
	if len(cfg.Policy.Paths) > 0 {
		if err := eng.LoadPolicies(ctx, cfg.Policy.Paths); err != nil {
			return nil, err
		}
	}
	return eng, nil
}
