package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var notificationsLimit int

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Short:   "List the server's notifications, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}

		list, err := app.Remote.FetchNotifications(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch notifications: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No notifications yet.")
			return nil
		}
		if notificationsLimit > 0 && len(list) > notificationsLimit {
			list = list[:notificationsLimit]
		}
		for _, n := range list {
			line := formatEntry(n)
			if !n.Timestamp.IsZero() {
				line += " (" + humanize.Time(n.Timestamp) + ")"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the server's notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		if err := app.Remote.ClearNotifications(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear notifications: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Notifications cleared.")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Purge the adoption queues and the notification history",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		msg, err := app.Remote.Reset(cmd.Context())
		if err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	notificationsCmd.Flags().IntVarP(&notificationsLimit, "limit", "n", 0, "show at most n notifications")
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(resetCmd)
}
