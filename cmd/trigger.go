package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/market-muscles-llc/pulse-kronos/internal/config"
	"github.com/market-muscles-llc/pulse-kronos/internal/service"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// NewTriggerCmd returns the "trigger" subcommand, which sends the test
// payload to the control webhook endpoint and prints the outcome.
func NewTriggerCmd(cfg *config.AppConfig) *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Send a test webhook to the control endpoint",
		Long: `Send the sample "Test trigger event" payload to CONTROL_WEBHOOK_ENDPOINT
(or --endpoint) and print the delivery outcome as JSON. The exit status is
non-zero when the delivery fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("endpoint") {
				cfg.ControlWebhookEndpoint = endpoint
			}
			if cfg.ControlWebhookEndpoint == "" {
				return errors.New("no endpoint: set CONTROL_WEBHOOK_ENDPOINT or pass --endpoint")
			}

			control := webhook.NewControlResolver(cfg.ControlWebhookEndpoint, cfg.ControlWebhookSecret)
			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			svc := service.NewWebhookService(nil, nil, control, newNotifier(cfg, control), nil, quiet)

			outcomes := svc.Boop(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]any{"results": outcomes}); err != nil {
				return fmt.Errorf("writing results: %w", err)
			}
			for _, o := range outcomes {
				if !o.OK {
					return fmt.Errorf("delivery to %s failed: %s", cfg.ControlWebhookEndpoint, o.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Webhook URL (overrides CONTROL_WEBHOOK_ENDPOINT)")
	return cmd
}
