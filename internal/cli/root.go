// Package cli provides the command-line interface for the options dashboard.
package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-dashboard/internal/charts"
	"options-dashboard/internal/config"
	"options-dashboard/internal/dashboard"
	"options-dashboard/internal/expiry"
	"options-dashboard/internal/logging"
	"options-dashboard/internal/provider"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies. Provider, Service and Renderer
// are built on first use so commands such as "config path" never touch the
// network.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Provider  provider.Provider
	Service   *dashboard.Service
	Renderer  *charts.Renderer
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{Logger: logging.NewLogger()})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Options chain dashboard",
		Long: `Options chain dashboard for US equities.

Shows call/put volume and open interest per strike for one expiry, with
a volume heatmap and a GEX-style open interest chart. Run 'dashboard serve'
for the web dashboard or use the chain, expiries and chart commands from
the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				if dir == "" {
					dir = config.DefaultConfigDir()
				}
				cfg, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.ConfigDir = dir
				app.Config = cfg
				app.Logger = logging.New(cfg.LogOptions())
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-dashboard)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newExpiriesCmd(app))
	rootCmd.AddCommand(newChartCmd(app))

	return rootCmd
}

// ready builds the provider, dashboard service and chart renderer from the
// loaded configuration unless they are already set.
func (a *App) ready() error {
	if a.Service != nil {
		if a.Renderer == nil {
			a.Renderer = charts.NewRenderer(charts.DefaultOptions())
		}
		return nil
	}
	if a.Config == nil {
		return errors.New("configuration not loaded")
	}

	p, err := provider.New(a.Config.Provider, a.Config.Credentials, a.Logger)
	if err != nil {
		return err
	}
	resolver := expiry.NewResolver(p, expiry.Config{
		MaxExpiries:    a.Config.Resolver.MaxExpiries,
		FallbackMonths: a.Config.Resolver.FallbackMonths,
		RetryDelay:     a.Config.Resolver.RetryDelay,
	}, a.Logger)

	a.Provider = p
	a.Service = dashboard.NewService(p, resolver, a.Config.Dashboard, a.Logger)
	a.Renderer = charts.NewRenderer(charts.OptionsFromConfig(a.Config.Charts))

	a.Logger.Debug().Str("provider", p.Name()).Msg("Market data provider initialized")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Dashboard v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := maskCredentials(app.Config)
			if output.IsJSON() {
				return output.JSON(cfg)
			}
			showConfig(output, cfg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := app.ConfigDir
			if path == "" {
				path = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{
					"path":        path,
					"config":      filepath.Join(path, "config.toml"),
					"credentials": filepath.Join(path, "credentials.toml"),
				})
			} else {
				output.Println(path)
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

// maskCredentials returns a copy of cfg with secrets replaced.
func maskCredentials(cfg *config.Config) *config.Config {
	masked := *cfg
	if masked.Credentials.Polygon.APIKey != "" {
		masked.Credentials.Polygon.APIKey = "********"
	}
	return &masked
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Read Timeout:    %s\n", cfg.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", cfg.Server.WriteTimeout)
	output.Println()

	output.Bold("Provider")
	output.Printf("  Name:            %s\n", cfg.Provider.Name)
	output.Printf("  Timeout:         %s\n", cfg.Provider.Timeout)
	if cfg.Provider.Name == config.ProviderFixture {
		output.Printf("  Fixture Dir:     %s\n", cfg.Provider.FixtureDir)
	}
	output.Printf("  Polygon Key:     %s\n", presence(cfg.Credentials.Polygon.APIKey))
	output.Println()

	output.Bold("Expiry Resolver")
	output.Printf("  Max Expiries:    %d\n", cfg.Resolver.MaxExpiries)
	output.Printf("  Fallback Months: %d\n", cfg.Resolver.FallbackMonths)
	output.Printf("  Retry Delay:     %s\n", cfg.Resolver.RetryDelay)
	output.Println()

	output.Bold("Dashboard")
	output.Printf("  Default Ticker:  %s\n", cfg.Dashboard.DefaultTicker)
	output.Printf("  Default Range:   %s\n", cfg.Dashboard.DefaultRange)
	output.Printf("  Range Percent:   %.1f%%\n", cfg.Dashboard.RangePercent)
	output.Println()

	output.Bold("Charts")
	output.Printf("  GEX Size:        %dx%d\n", cfg.Charts.GEXWidth, cfg.Charts.GEXHeight)
	output.Printf("  Heatmap Cell:    %dx%d\n", cfg.Charts.HeatmapCellWidth, cfg.Charts.HeatmapRowHeight)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}

func presence(secret string) string {
	if secret == "" {
		return "not set"
	}
	return "set"
}
