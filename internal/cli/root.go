// Package cli provides the command-line interface for the paper trading
// engine.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"papertrader/internal/config"
	"papertrader/internal/fundamentals"
	"papertrader/internal/logging"
	"papertrader/internal/marketdata"
	"papertrader/internal/store"
	"papertrader/internal/trading"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.TradeStore
	Provider marketdata.PriceProvider
	Engine   *trading.Engine
	Tracker  *trading.Tracker
}

// initEngine wires store, provider, fundamentals, and engine lazily so
// commands that never touch them (version, config path) stay cheap.
func (app *App) initEngine() error {
	if app.Engine != nil {
		return nil
	}

	var st store.TradeStore
	var err error
	switch app.Config.Storage.Backend {
	case "csv":
		st, err = store.NewCSVStore(app.Config.Storage.Path)
	default:
		st, err = store.NewSQLiteStore(app.Config.Storage.Path)
	}
	if err != nil {
		return err
	}

	provider := marketdata.NewCachingProvider(
		marketdata.NewCSVProvider(app.Config.Storage.DataDir), st)

	fnd := fundamentals.NewWhitelist(app.Config.Universe.Whitelist,
		fundamentals.DefaultState(app.Config.Universe.FundamentalDefault))

	engine, err := trading.NewEngine(app.Config, st, provider, fnd, app.Logger)
	if err != nil {
		st.Close()
		return err
	}

	app.Store = st
	app.Provider = provider
	app.Engine = engine
	app.Tracker = trading.NewTracker(app.Config.Rules)
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "papertrader",
		Short: "Rule-based paper trading engine",
		Long: `papertrader classifies symbols against a locked rule set and runs
paper trades through a mechanical lifecycle: fixed stop, fixed target,
behavior-failure exit, and a maximum holding period.

No orders are ever sent anywhere. Every analysis verdict is logged,
eligible or not, so the rules can be audited after the fact.`,
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
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				app.Store.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/papertrader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newUpdateCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newLogCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("papertrader v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the rule configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	r := cfg.Rules
	output.Bold("Rule Constants (%s, fingerprint %s)", r.Version, r.Fingerprint())
	output.Printf("  Stop Loss:        %.1f%%\n", r.StopLossPct*100)
	output.Printf("  Target:           %.1f%%\n", r.TargetPct*100)
	output.Printf("  Max Holding Days: %d\n", r.MaxHoldingDays)
	output.Printf("  RS Strong/Weak:   %+.2f / %+.2f (%d-day lookback)\n",
		r.RSStrongThreshold, r.RSWeakThreshold, r.RSLookbackDays)
	output.Printf("  Min History Bars: %d\n", r.MinHistoryBars)
	output.Printf("  No-Move Band:     %.1f%%\n", r.NoMoveBandPct*100)
	output.Printf("  Position Value:   %.0f\n", r.PositionValue)
	output.Println()

	output.Bold("Universe")
	output.Printf("  Symbols:   %d\n", len(cfg.Universe.Symbols))
	output.Printf("  Benchmark: %s\n", cfg.Universe.Benchmark)
	output.Printf("  Fundamental Default: %s\n", cfg.Universe.FundamentalDefault)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Backend:  %s\n", cfg.Storage.Backend)
	output.Printf("  Path:     %s\n", cfg.Storage.Path)
	output.Printf("  Data Dir: %s\n", cfg.Storage.DataDir)
}
