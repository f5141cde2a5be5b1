package commands

import (
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var products string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and catalog without touching Stripe",
		Long: `Validate the configuration file, the catalog document, and the
policy gate offline. No provider call is made, so no API key is needed.`,
		Example: `  # Validate the configured catalog
  runway validate

  # Validate an inline catalog
  runway validate --products "Founders:2500,usd,month"`,
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

			gate, err := evaluateGate(ctx, cfg, logger, nil, desired, cfg.Webhook.URL, "validate")
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(cmd, struct {
					ProjectID string      `json:"project_id"`
					Products  interface{} `json:"products"`
					Policy    interface{} `json:"policy"`
				}{cfg.ProjectID, desired, gate})
			}

			prices := 0
			for _, p := range desired {
				prices += len(p.Prices)
			}
			cmd.Printf("Configuration valid: project %s, %d product(s), %d price(s)\n",
				cfg.ProjectID, len(desired), prices)
			printGate(cmd, gate)

			return nil
		},
	}

	cmd.Flags().StringVar(&products, "products", "", "inline catalog overriding the configured one")

	return cmd
}
