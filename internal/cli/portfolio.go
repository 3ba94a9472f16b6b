package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"protrader/internal/analytics"
	apperrors "protrader/internal/errors"
	"protrader/internal/market"
	"protrader/internal/models"
	"protrader/internal/portfolio"
)

// addPortfolioCommands adds subscription and portfolio commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSubscribeCmd(app))
	rootCmd.AddCommand(newUnsubscribeCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newInsightsCmd(app))
	rootCmd.AddCommand(newCompareCmd(app))
}

// simulatedSnapshot advances a fresh engine the requested number of ticks
// and returns the resulting state.
func (app *App) simulatedSnapshot(ticks int) market.Snapshot {
	engine := app.newEngine()
	for i := 0; i < ticks; i++ {
		engine.Step()
	}
	return engine.Snapshot()
}

func newSubscribeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe <ticker> [quantity]",
		Short: "Subscribe to a ticker",
		Long: `Add a ticker to your portfolio with the given share quantity.

At most five tickers can be held at a time. Subscribing to a ticker you
already hold is a no-op.`,
		Example: `  protrader subscribe NVDA
  protrader subscribe TSLA 25`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ticker := models.TickerSymbol(strings.ToUpper(args[0]))

			quantity := 10
			if len(args) > 1 {
				q, err := strconv.Atoi(args[1])
				if err != nil {
					output.Error("Quantity must be a whole number: %s", args[1])
					return apperrors.NewValidationError("quantity", args[1], "not an integer")
				}
				quantity = q
			}

			if !market.IsKnown(ticker) {
				output.Warning("%s is not in the simulated universe; it will be ignored by the dashboard.", ticker)
			}

			if err := app.Subs.Subscribe(ticker, quantity); err != nil {
				var capErr *apperrors.CapacityError
				switch {
				case apperrors.As(err, &capErr):
					output.Error("Portfolio full: at most %d subscriptions.", capErr.Limit)
				case apperrors.Is(err, apperrors.ErrNotAuthenticated):
					output.Error("Log in first: guests browse the demo portfolio read-only.")
				case apperrors.Is(err, apperrors.ErrInvalidQuantity):
					output.Error("Quantity must be a positive integer.")
				default:
					output.Error("Subscribe failed: %v", err)
				}
				return err
			}

			output.Success("Subscribed to %d share(s) of %s.", quantity, ticker)
			return nil
		},
	}
	return cmd
}

func newUnsubscribeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "unsubscribe <ticker>",
		Short:   "Remove a ticker from your portfolio",
		Example: `  protrader unsubscribe META`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ticker := models.TickerSymbol(strings.ToUpper(args[0]))

			if err := app.Subs.Unsubscribe(ticker); err != nil {
				if apperrors.Is(err, apperrors.ErrNotAuthenticated) {
					output.Error("Log in first: guests browse the demo portfolio read-only.")
				} else {
					output.Error("Unsubscribe failed: %v", err)
				}
				return err
			}

			output.Success("Unsubscribed from %s.", ticker)
			return nil
		},
	}
}

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show the portfolio summary",
		Long: `Show the aggregated portfolio: total value, change against the
reference prices, top gainer and per-holding performance.`,
		Example: `  protrader portfolio
  protrader portfolio --ticks 120`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ticks, _ := cmd.Flags().GetInt("ticks")

			snap := app.simulatedSnapshot(ticks)
			subscriptions := app.Subs.Subscriptions()
			summary := portfolio.Summarize(snap, subscriptions)

			if output.IsJSON() {
				return output.JSON(summary)
			}

			if app.Subs.User() == nil {
				output.Dim("Guest demo portfolio (log in to customize)")
			}
			output.Bold("Portfolio Value: %s", FormatUSD(summary.TotalValue))
			changeColor := output.ChangeColor(summary.TotalChange)
			output.Printf("Change: %s\n",
				output.ColoredString(changeColor, FormatChange(summary.TotalChange, summary.ChangePercent)))
			if summary.TopGainer != nil {
				output.Printf("Top gainer: %s (%s)\n",
					summary.TopGainer.Ticker, FormatPercent(summary.TopGainer.ChangePercent))
			}
			output.Printf("Rising: %d  Falling: %d\n", summary.RisingCount, summary.FallingCount)
			output.Println()

			rows := portfolio.Performance(snap, market.ReferenceTable(), subscriptions)
			table := NewTable(output, "Ticker", "Name", "Qty", "Price", "Value", "Change")
			for _, row := range rows {
				color := output.ChangeColor(row.ChangePercent)
				table.AddRow(
					string(row.Ticker),
					TruncateString(row.Name, 24),
					strconv.Itoa(row.Quantity),
					fmt.Sprintf("%.2f", row.Price),
					FormatUSD(row.Price*float64(row.Quantity)),
					output.ColoredString(color, FormatPercent(row.ChangePercent)),
				)
			}
			table.Render()

			sectors := portfolio.SectorAllocation(market.ReferenceTable(), subscriptions)
			if len(sectors) > 0 {
				output.Println()
				output.Dim("Sectors:")
				for sector, count := range sectors {
					output.Printf("  %-16s %d\n", sector, count)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("ticks", 60, "simulation ticks to advance before computing")
	return cmd
}

func newInsightsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show auto-generated portfolio insights",
		Long: `Show weekly trend metrics, volatility, risk classification and
generated observations for the subscribed tickers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ticks, _ := cmd.Flags().GetInt("ticks")

			snap := app.simulatedSnapshot(ticks)
			insights, err := analytics.Insights(snap, app.Subs.Subscriptions())
			if err != nil {
				output.Error("Failed to compute insights: %v", err)
				return err
			}
			if insights == nil {
				output.Dim("No insights yet. Subscribe to at least one stock first.")
				return nil
			}

			if output.IsJSON() {
				return output.JSON(insights)
			}

			output.Bold("Portfolio Insights")
			output.Printf("Average weekly return: %s\n", FormatPercent(insights.AvgReturn))
			output.Printf("Average volatility:    %.2f%%\n", insights.AvgVolatility)
			output.Printf("Risk level:            %s\n", insights.RiskLevel)
			output.Printf("Best performer:        %s (%s)\n",
				insights.BestPerformer.Ticker, FormatPercent(insights.BestPerformer.NetChange))
			output.Printf("Most volatile:         %s (%.1f%%)\n",
				insights.MostVolatile.Ticker, insights.MostVolatile.Volatility)
			output.Println()

			table := NewTable(output, "Ticker", "Net Change", "Volatility", "Up Sessions", "Low", "High")
			for _, s := range insights.Stocks {
				color := output.ChangeColor(s.NetChange)
				table.AddRow(
					string(s.Ticker),
					output.ColoredString(color, FormatPercent(s.NetChange)),
					fmt.Sprintf("%.2f%%", s.Volatility),
					fmt.Sprintf("%d/5", s.PositiveSessions),
					fmt.Sprintf("%.2f", s.Low),
					fmt.Sprintf("%.2f", s.High),
				)
			}
			table.Render()

			output.Println()
			output.Dim("Key observations:")
			for _, obs := range insights.Observations {
				output.Printf("  • %s\n", obs.Title)
				output.Dim("    %s", obs.Subtext)
			}
			return nil
		},
	}
	cmd.Flags().Int("ticks", 60, "simulation ticks to advance before computing")
	return cmd
}

func newCompareCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [ticker...]",
		Short: "Show the price correlation matrix",
		Long: `Show the pairwise Pearson correlation of simulated price history
for the given tickers, or for the subscription list when none are given.`,
		Example: `  protrader compare
  protrader compare GOOG TSLA NVDA`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ticks, _ := cmd.Flags().GetInt("ticks")

			var tickers []models.TickerSymbol
			if len(args) > 0 {
				for _, arg := range args {
					tickers = append(tickers, models.TickerSymbol(strings.ToUpper(arg)))
				}
			} else {
				tickers = app.Subs.ActiveTickers()
			}

			snap := app.simulatedSnapshot(ticks)
			matrix := analytics.CorrelationMatrix(snap, tickers)
			if matrix == nil {
				output.Error("Need at least two tickers to compare.")
				return fmt.Errorf("need at least two tickers")
			}

			if output.IsJSON() {
				return output.JSON(matrix)
			}

			headers := []string{""}
			for _, t := range tickers {
				headers = append(headers, string(t))
			}
			table := NewTable(output, headers...)
			for _, row := range tickers {
				cells := []string{string(row)}
				for _, col := range tickers {
					cells = append(cells, fmt.Sprintf("%.2f", matrix[row][col]))
				}
				table.AddRow(cells...)
			}
			table.Render()

			output.Println()
			output.Dim("Correlation range: -1.0 (inverse) to +1.0 (identical)")
			return nil
		},
	}
	cmd.Flags().Int("ticks", 60, "simulation ticks to advance before computing")
	return cmd
}
