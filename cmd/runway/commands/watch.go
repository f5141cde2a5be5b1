package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/runwaylabs/runway/pkg/engine"
	"github.com/runwaylabs/runway/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var (
		metricsAddr string
		webhookURL  string
		debounce    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-plan whenever the catalog file changes",
		Long: `Watch the configured products file and rebuild the plan on every
change. Plans are read-only; nothing is applied from watch mode.

With --metrics-addr a Prometheus endpoint exposes run and drift
counters while watching.`,
		Example: `  # Watch the configured products file
  runway watch

  # Watch and expose metrics
  runway watch --metrics-addr :9090`,
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
			if cfg.ProductsFile == "" {
				return fmt.Errorf("watch needs products_file in the configuration, inline products cannot be watched")
			}
			if webhookURL == "" {
				webhookURL = cfg.Webhook.URL
			}

			client, err := newBillingClient(cfg, logger)
			if err != nil {
				return err
			}
			planner := engine.NewPlanner(client, logger)

			metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
				Enabled:       metricsAddr != "",
				ListenAddress: metricsAddr,
				Path:          "/metrics",
				Namespace:     "runway",
			})
			if err != nil {
				return err
			}
			metrics.StartServer(func(err error) {
				logger.Error().Err(err).Msg("metrics server failed")
			})

			runOnce := func() {
				timer := telemetry.NewTimer()
				metrics.RecordRunStarted(string(engine.ProviderStripe), "plan")

				desired, err := cfg.Catalog()
				if err != nil {
					metrics.RecordRunCompleted(string(engine.ProviderStripe), "parse_error", timer.Duration())
					logger.Error().Err(err).Msg("catalog rejected")
					cmd.Printf("catalog rejected: %v\n", err)
					return
				}

				plan, err := planner.BuildPlan(ctx, cfg.ProjectID, desired, engine.Options{WebhookURL: webhookURL})
				if err != nil {
					metrics.RecordRunCompleted(string(engine.ProviderStripe), "error", timer.Duration())
					logger.Error().Err(err).Msg("plan failed")
					return
				}

				for _, warning := range plan.Warnings {
					if name, ok := driftedProduct(warning); ok {
						metrics.RecordDriftDetection(name)
					}
				}
				metrics.RecordRunCompleted(string(engine.ProviderStripe), "success", timer.Duration())

				cmd.Printf("\n[%s]\n", time.Now().Format(time.RFC3339))
				cmd.Print(engine.FormatPlan(plan))
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			// Watch the directory, not the file: editors replace files
			// on save and the inode-level watch would be lost.
			productsFile, err := filepath.Abs(cfg.ProductsFile)
			if err != nil {
				return err
			}
			if err := watcher.Add(filepath.Dir(productsFile)); err != nil {
				return fmt.Errorf("failed to watch %s: %w", filepath.Dir(productsFile), err)
			}

			logger.Info().Str("file", productsFile).Msg("watching catalog")
			runOnce()

			var pending *time.Timer
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != productsFile {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
						continue
					}
					logger.Debug().Str("op", event.Op.String()).Msg("catalog changed")
					if pending != nil {
						pending.Stop()
					}
					pending = time.AfterFunc(debounce, runOnce)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Error().Err(err).Msg("watcher error")
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (e.g. :9090)")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "webhook endpoint URL overriding the configured one")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "delay before re-planning after a change")

	return cmd
}

// driftedProduct extracts the product name from a drift warning.
func driftedProduct(warning string) (string, bool) {
	const prefix = "Price definition changed for "
	if !strings.HasPrefix(warning, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(warning, prefix)
	if i := strings.IndexAny(name, ";."); i >= 0 {
		name = name[:i]
	}
	return name, true
}
