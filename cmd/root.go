package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/market-muscles-llc/pulse-kronos/internal/config"
)

// NewRootCmd builds the pulse-kronos command tree around cfg.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           "pulse-kronos",
		Short:         "Scheduling web layer with booking webhooks",
		Long:          "Pulse Kronos serves the booking API, the control API and booking pages, and notifies webhook subscribers of booking lifecycle events.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewTriggerCmd(cfg))
	root.AddCommand(NewVersionCmd())
	return root
}

// Execute loads the configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
