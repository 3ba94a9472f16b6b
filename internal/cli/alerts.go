package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apperrors "protrader/internal/errors"
	"protrader/internal/models"
)

// addAlertCommands adds price alert commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	alertCmd := &cobra.Command{
		Use:   "alert",
		Short: "Price alert management",
		Long:  "Create, list and remove price alerts. Alerts trigger exactly once.",
	}
	alertCmd.AddCommand(newAlertAddCmd(app))
	alertCmd.AddCommand(newAlertListCmd(app))
	alertCmd.AddCommand(newAlertRemoveCmd(app))
	alertCmd.AddCommand(newAlertClearCmd(app))
	rootCmd.AddCommand(alertCmd)
}

func newAlertAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ticker> <above|below> <threshold>",
		Short: "Create a price alert",
		Long: `Create a price alert. An ABOVE alert triggers the first time the
price reaches or exceeds the threshold; a BELOW alert the first time it
reaches or falls under it. A triggered alert never fires again.`,
		Example: `  protrader alert add TSLA above 460
  protrader alert add GOOG below 300.50`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ticker := models.TickerSymbol(strings.ToUpper(args[0]))
			kind := models.AlertKind(strings.ToUpper(args[1]))
			threshold, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				output.Error("Threshold must be a number: %s", args[2])
				return apperrors.NewValidationError("threshold", args[2], "not a number")
			}

			alert, err := app.Monitor.AddAlert(ticker, kind, threshold)
			if err != nil {
				var valErr *apperrors.ValidationError
				switch {
				case apperrors.As(err, &valErr):
					output.Error("Invalid alert: %s", valErr.Message)
				case apperrors.Is(err, apperrors.ErrInvalidThreshold):
					output.Error("Threshold must be a positive, finite number.")
				case apperrors.Is(err, apperrors.ErrUnknownTicker):
					output.Error("Unknown ticker %s. See 'protrader tickers'.", ticker)
				default:
					output.Error("Failed to create alert: %v", err)
				}
				return err
			}

			output.Success("Alert set: %s %s %.2f (id %s)", alert.Ticker, strings.ToLower(string(alert.Kind)), alert.Threshold, alert.ID[:8])
			output.Dim("Alerts are evaluated while 'protrader run' is active.")
			return nil
		},
	}
}

func newAlertListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			app.restoreAlerts(cmd.Context())
			all := app.Monitor.Alerts()

			if output.IsJSON() {
				return output.JSON(all)
			}
			if len(all) == 0 {
				output.Dim("No alerts. Create one with 'protrader alert add'.")
				return nil
			}

			table := NewTable(output, "ID", "Ticker", "Kind", "Threshold", "Status", "Created")
			for _, a := range all {
				status := output.ColoredString(ColorYellow, "ACTIVE")
				if !a.Active {
					triggeredAt := ""
					if a.TriggeredAt != nil {
						triggeredAt = " " + FormatTime(*a.TriggeredAt)
					}
					status = output.ColoredString(ColorGreen, "TRIGGERED"+triggeredAt)
				}
				table.AddRow(
					a.ID[:8],
					string(a.Ticker),
					strings.ToLower(string(a.Kind)),
					fmt.Sprintf("%.2f", a.Threshold),
					status,
					FormatDateTime(a.CreatedAt),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAlertRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Short:   "Remove an alert by id prefix",
		Example: `  protrader alert remove 1a2b3c4d`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			prefix := args[0]

			app.restoreAlerts(cmd.Context())
			for _, a := range app.Monitor.Alerts() {
				if strings.HasPrefix(a.ID, prefix) {
					app.Monitor.RemoveAlert(a.ID)
					output.Success("Removed alert %s (%s %s %.2f).", a.ID[:8], a.Ticker, strings.ToLower(string(a.Kind)), a.Threshold)
					return nil
				}
			}
			output.Error("No alert matches id prefix %s.", prefix)
			return fmt.Errorf("alert not found: %s", prefix)
		},
	}
}

func newAlertClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			app.Monitor.ClearAlerts()
			output.Success("All alerts removed.")
			return nil
		},
	}
}
