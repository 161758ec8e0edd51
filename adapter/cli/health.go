package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the adoption server's health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}

		health, err := app.Remote.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("server unreachable at %s: %w", app.Config.ServerURL, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %s\n", health.Status)
		names := make([]string, 0, len(health.Checks))
		for name := range health.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			check := health.Checks[name]
			line := fmt.Sprintf("  %-14s %s", name, check.Status)
			if check.Message != "" {
				line += " (" + check.Message + ")"
			}
			fmt.Fprintln(out, line)
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("server is unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
