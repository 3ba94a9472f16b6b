// Package cli provides the command-line interface for the dashboard.
package cli

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"protrader/internal/alerts"
	"protrader/internal/config"
	"protrader/internal/logging"
	"protrader/internal/market"
	"protrader/internal/notify"
	"protrader/internal/store"
	"protrader/internal/subs"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.DataStore
	Center  *notify.Center
	Monitor *alerts.Monitor
	Subs    *subs.Manager
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize SQLite store
	dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Msg("SQLite store initialized")
	}

	app.Center = notify.NewCenter(notify.CenterConfig{
		HistoryCap:  cfg.Notifications.HistoryCap,
		ActivityCap: cfg.Notifications.ActivityCap,
		Logger:      logger,
	})
	if app.Store != nil {
		app.Center.SetHistorySink(app.Store)
	}

	monitorCfg := alerts.MonitorConfig{
		Center: app.Center,
		Logger: logger,
	}
	if app.Store != nil {
		monitorCfg.Sink = app.Store
	}
	app.Monitor = alerts.NewMonitor(monitorCfg)

	subsCfg := subs.ManagerConfig{
		MaxPerUser: cfg.Subscriptions.MaxPerUser,
		Center:     app.Center,
		Logger:     logger,
	}
	if app.Store != nil {
		subsCfg.Persister = app.Store
	}
	app.Subs = subs.NewManager(subsCfg)

	app.restoreSession()

	rootCmd := &cobra.Command{
		Use:   "protrader",
		Short: "ProTrader - simulated trading dashboard CLI",
		Long: `ProTrader is a simulated stock trading dashboard for the terminal.

It runs a bounded random-walk price simulation over a fixed ticker universe
and layers portfolio tracking, price alerts and auto-generated insights on
top. All market data is simulated; no real money or brokers are involved.

Use 'protrader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/protrader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	addAccountCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addAlertCommands(rootCmd, app)
	addNotificationCommands(rootCmd, app)

	return rootCmd
}

// newEngine builds a price engine from the app configuration.
func (app *App) newEngine() *market.Engine {
	seed := app.Config.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return market.NewEngine(market.EngineConfig{
		TickInterval:  app.Config.Simulation.TickInterval,
		Volatility:    app.Config.Simulation.Volatility,
		HistoryLength: app.Config.Simulation.HistoryLength,
		Rand:          rand.New(rand.NewSource(seed)),
		Logger:        app.Logger,
	})
}

// attachAlerts wires alert evaluation into the engine when alerts are
// enabled in the configuration, and reports whether it did.
func (app *App) attachAlerts(ctx context.Context, engine *market.Engine) bool {
	if !app.Config.Alerts.Enabled {
		app.Logger.Info().Msg("Alert evaluation disabled by configuration")
		return false
	}
	engine.RegisterConsumer(app.Monitor)
	app.restoreAlerts(ctx)
	return true
}

// restoreAlerts loads persisted active alerts into the monitor.
func (app *App) restoreAlerts(ctx context.Context) {
	if app.Store == nil {
		return
	}
	active, err := app.Store.ActiveAlerts(ctx)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to load persisted alerts")
		return
	}
	app.Monitor.Restore(active)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
				return
			}
			output.Printf("protrader %s\n", Version)
		},
	}
}
