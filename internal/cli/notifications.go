package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	apperrors "protrader/internal/errors"
)

// addNotificationCommands adds notification history commands.
func addNotificationCommands(rootCmd *cobra.Command, app *App) {
	notifCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Notification history",
		Long:    "List and clear the triggered-alert notification history.",
	}
	notifCmd.AddCommand(newNotificationsListCmd(app))
	notifCmd.AddCommand(newNotificationsDismissCmd(app))
	notifCmd.AddCommand(newNotificationsClearCmd(app))
	rootCmd.AddCommand(notifCmd)
}

func newNotificationsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notification history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			if app.Store == nil {
				output.Error("Store unavailable; no persisted history.")
				return apperrors.ErrStoreClosed
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			entries, err := app.Store.Notifications(ctx, limit)
			if err != nil {
				output.Error("Failed to load notifications: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}
			if len(entries) == 0 {
				output.Dim("No notifications yet.")
				return nil
			}

			for _, e := range entries {
				output.Printf("%s  %s\n", FormatDateTime(e.Timestamp), e.Message)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 50, "maximum entries to show")
	return cmd
}

func newNotificationsDismissCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss an unread notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			app.Center.Dismiss(args[0])
			output.Success("Dismissed %s.", args[0])
			return nil
		},
	}
}

func newNotificationsClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the notification history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			app.Center.ClearHistory()
			output.Success("Notification history cleared.")
			return nil
		},
	}
}
