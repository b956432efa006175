package main

import (
	"fmt"
	"strconv"

	"github.com/radarip/radarip/internal/probe"
	"github.com/spf13/cobra"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List device profiles and transports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var rows []map[string]string
			for _, p := range a.cfg.Profiles {
				rows = append(rows, map[string]string{
					"name":     p.Name,
					"range":    p.Range,
					"username": p.Username,
					"key_env":  p.KeyEnv,
				})
			}
			printTable(out, rows, []string{"name", "range", "username", "key_env"})

			fmt.Fprintln(out)

			rows = nil
			for _, proto := range probe.GetRegistry().ListProtocols() {
				rows = append(rows, map[string]string{
					"transport": proto.ID,
					"port":      strconv.Itoa(proto.DefaultPort),
					"name":      proto.Name,
				})
			}
			printTable(out, rows, []string{"transport", "port", "name"})
			return nil
		},
	}
}
