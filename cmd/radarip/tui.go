package main

import (
	"github.com/radarip/radarip/internal/credentials"
	"github.com/radarip/radarip/internal/radar"
	"github.com/radarip/radarip/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Search interactively from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would tear the terminal UI; keep only errors.
			a.cfg.Logging.Level = "error"
			logger := initLogger(a.cfg.Logging, cmd.ErrOrStderr())

			planner := radar.NewPlanner(a.cfg, credentials.NewService(), logger)
			return tui.Run(cmd.Context(), planner, a.cfg)
		},
	}
}
