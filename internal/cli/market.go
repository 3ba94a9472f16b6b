package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"protrader/internal/market"
	"protrader/internal/models"
	"protrader/internal/notify"
	"protrader/internal/stream"
)

// addMarketCommands adds simulation and market data commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newTickersCmd(app))
}

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the dashboard simulation",
		Long: `Run the price simulation with alert evaluation and the activity feed.

Prices advance once per tick interval. Active alerts are evaluated after
every tick and trigger exactly once. Market chatter is generated for the
subscribed tickers. Press Ctrl+C to stop.`,
		Example: `  protrader run
  protrader run --duration 2m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			duration, _ := cmd.Flags().GetDuration("duration")

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			engine := app.newEngine()
			hub := stream.NewHub()
			engine.SetPublisher(hub)
			alertsOn := app.attachAlerts(ctx, engine)

			chatter := notify.NewChatter(notify.ChatterConfig{
				Center:    app.Center,
				Source:    app.Subs.ActiveTickers,
				Interval:  app.Config.Notifications.ChatterInterval,
				Chance:    app.Config.Notifications.ChatterChance,
				DedupeTTL: app.Config.Notifications.ChatterDedupeTTL,
				Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
			})

			app.Center.OnNotification(func(event models.NotificationEvent) {
				output.Success("🔔 %s", event.Message)
			})
			app.Center.OnActivity(func(entry models.ActivityEntry) {
				switch entry.Category {
				case models.ActivityPositive:
					output.Info("  %s", entry.Message)
				case models.ActivityNegative:
					output.Warning("  %s", entry.Message)
				default:
					output.Dim("  %s", entry.Message)
				}
			})

			hub.Start(ctx)
			engine.Start(ctx)
			chatter.Start(ctx)

			output.Bold("Simulation running (%d tickers, tick %s)",
				len(market.Tickers()), app.Config.Simulation.TickInterval)
			if alertsOn {
				output.Dim("Active alerts: %d  Subscriptions: %d",
					app.Monitor.ActiveCount(), len(app.Subs.Subscriptions()))
			} else {
				output.Dim("Alerts disabled  Subscriptions: %d", len(app.Subs.Subscriptions()))
			}
			output.Println()

			<-ctx.Done()

			chatter.Stop()
			engine.Stop()
			hub.Stop()

			output.Println()
			summary := app.Monitor.Alerts()
			triggered := 0
			for _, a := range summary {
				if !a.Active {
					triggered++
				}
			}
			output.Printf("Stopped after %d ticks. Alerts triggered: %d\n", engine.Seq(), triggered)
			return nil
		},
	}
	cmd.Flags().Duration("duration", 0, "stop after this long (0 = run until interrupted)")
	return cmd
}

// quotePrinter renders live quotes from the hub.
type quotePrinter struct {
	output  *Output
	tickers []models.TickerSymbol
}

func (p *quotePrinter) Tickers() []models.TickerSymbol { return p.tickers }

func (p *quotePrinter) OnQuote(quote models.Quote) {
	color := p.output.ChangeColor(quote.Change)
	p.output.Printf("%s  %-5s  %9.2f  %s\n",
		FormatTime(quote.Timestamp),
		quote.Ticker,
		quote.Price,
		p.output.ColoredString(color, FormatChange(quote.Change, quote.ChangePercent)),
	)
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [ticker...]",
		Short: "Stream live simulated quotes",
		Long: `Stream simulated quotes for the given tickers, or for the current
subscription list when no tickers are given. Press Ctrl+C to stop.`,
		Example: `  protrader watch
  protrader watch TSLA NVDA
  protrader watch --duration 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			duration, _ := cmd.Flags().GetDuration("duration")

			var tickers []models.TickerSymbol
			if len(args) > 0 {
				for _, arg := range args {
					t := models.TickerSymbol(strings.ToUpper(arg))
					if !market.IsKnown(t) {
						output.Warning("Unknown ticker %s, skipping", t)
						continue
					}
					tickers = append(tickers, t)
				}
			} else {
				tickers = app.Subs.ActiveTickers()
			}
			if len(tickers) == 0 {
				output.Error("Nothing to watch.")
				return fmt.Errorf("no tickers to watch")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			engine := app.newEngine()
			hub := stream.NewHub()
			engine.SetPublisher(hub)
			hub.RegisterConsumer(&quotePrinter{output: output, tickers: tickers})

			hub.Start(ctx)
			engine.Start(ctx)

			output.Bold("Watching %d ticker(s)", len(tickers))
			output.Println()

			<-ctx.Done()
			engine.Stop()
			hub.Stop()

			metrics := hub.GetMetrics()
			output.Println()
			output.Dim("Quotes broadcast: %d  dropped: %d", metrics.QuotesBroadcast, metrics.QuotesDropped)
			return nil
		},
	}
	cmd.Flags().Duration("duration", 0, "stop after this long (0 = run until interrupted)")
	return cmd
}

func newTickersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tickers",
		Short: "List the simulated ticker universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			refs := market.ReferenceTable()

			if output.IsJSON() {
				return output.JSON(refs)
			}

			table := NewTable(output, "Ticker", "Name", "Sector", "Base", "Day Low", "Day High", "P/E")
			for _, t := range market.Tickers() {
				ref := refs[t]
				table.AddRow(
					string(t),
					ref.Name,
					ref.Sector,
					fmt.Sprintf("%.2f", ref.BasePrice),
					fmt.Sprintf("%.2f", ref.DayLow),
					fmt.Sprintf("%.2f", ref.DayHigh),
					fmt.Sprintf("%.1f", ref.PERatio),
				)
			}
			table.Render()
			return nil
		},
	}
}
