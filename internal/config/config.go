// Package config provides configuration management for the options dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/logging"
)

// Provider names accepted in [provider] name.
const (
	ProviderYahoo   = "yahoo"
	ProviderPolygon = "polygon"
	ProviderFixture = "fixture"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Provider    ProviderConfig  `mapstructure:"provider"`
	Resolver    ResolverConfig  `mapstructure:"resolver"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
	Charts      ChartsConfig    `mapstructure:"charts"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Credentials Credentials     `mapstructure:"-"` // Loaded separately
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProviderConfig selects and tunes the market data provider.
type ProviderConfig struct {
	Name         string        `mapstructure:"name"` // yahoo, polygon, fixture
	Timeout      time.Duration `mapstructure:"timeout"`
	FixtureDir   string        `mapstructure:"fixture_dir"`
	YahooBaseURL string        `mapstructure:"yahoo_base_url"`
}

// ResolverConfig holds expiry resolution limits.
type ResolverConfig struct {
	MaxExpiries    int           `mapstructure:"max_expiries"`
	FallbackMonths int           `mapstructure:"fallback_months"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// DashboardConfig holds request defaults.
type DashboardConfig struct {
	DefaultTicker string  `mapstructure:"default_ticker"`
	DefaultRange  string  `mapstructure:"default_range"`
	RangePercent  float64 `mapstructure:"range_percent"`
}

// ChartsConfig holds chart dimensions in pixels.
type ChartsConfig struct {
	GEXWidth         int `mapstructure:"gex_width"`
	GEXHeight        int `mapstructure:"gex_height"`
	HeatmapCellWidth int `mapstructure:"heatmap_cell_width"`
	HeatmapRowHeight int `mapstructure:"heatmap_row_height"`
	HeatmapMaxWidth  int `mapstructure:"heatmap_max_width"`
}

// LoggingConfig is the [logging] section of config.toml.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Credentials holds API credentials.
type Credentials struct {
	Polygon PolygonCredentials `mapstructure:"polygon"`
}

// PolygonCredentials holds Polygon.io API credentials.
type PolygonCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-dashboard"
	}
	return filepath.Join(home, ".config", "options-dashboard")
}

// Default returns the configuration used when no file overrides a key.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config.toml or credentials.toml is written from a template and
// the defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.addr", ":5050")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("provider.name", ProviderYahoo)
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.fixture_dir", filepath.Join(configDir, "fixtures"))
	v.SetDefault("provider.yahoo_base_url", "https://query2.finance.yahoo.com")

	v.SetDefault("resolver.max_expiries", 12)
	v.SetDefault("resolver.fallback_months", 6)
	v.SetDefault("resolver.retry_delay", "1s")

	v.SetDefault("dashboard.default_ticker", "SPY")
	v.SetDefault("dashboard.default_range", "100-200")
	v.SetDefault("dashboard.range_percent", 10.0)

	v.SetDefault("charts.gex_width", 1600)
	v.SetDefault("charts.gex_height", 1200)
	v.SetDefault("charts.heatmap_cell_width", 150)
	v.SetDefault("charts.heatmap_row_height", 220)
	v.SetDefault("charts.heatmap_max_width", 2400)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "dashboard.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, write template and fall back to defaults
		if err := createTemplate(configDir, "config.toml", configTemplate, 0644); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("DASHBOARD_PROVIDER"); v != "" {
		cfg.Provider.Name = strings.ToLower(v)
	}
	if v := os.Getenv("DASHBOARD_FIXTURE_DIR"); v != "" {
		cfg.Provider.FixtureDir = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Credentials.Polygon.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderYahoo, ProviderFixture:
	case ProviderPolygon:
		if c.Credentials.Polygon.APIKey == "" {
			return fmt.Errorf("%w: polygon provider requires credentials.polygon.api_key or POLYGON_API_KEY", apperrors.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: provider %q (must be 'yahoo', 'polygon' or 'fixture')", apperrors.ErrConfigInvalid, c.Provider.Name)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must be set", apperrors.ErrConfigInvalid)
	}
	if c.Resolver.MaxExpiries <= 0 {
		return fmt.Errorf("%w: resolver.max_expiries must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Resolver.FallbackMonths <= 0 {
		return fmt.Errorf("%w: resolver.fallback_months must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Resolver.RetryDelay < 0 {
		return fmt.Errorf("%w: resolver.retry_delay must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.Dashboard.RangePercent <= 0 || c.Dashboard.RangePercent >= 100 {
		return fmt.Errorf("%w: dashboard.range_percent must be between 0 and 100", apperrors.ErrConfigInvalid)
	}
	if !validRangeString(c.Dashboard.DefaultRange) {
		return fmt.Errorf("%w: dashboard.default_range %q must look like '100-200'", apperrors.ErrConfigInvalid, c.Dashboard.DefaultRange)
	}
	if c.Charts.GEXWidth <= 0 || c.Charts.GEXHeight <= 0 || c.Charts.HeatmapCellWidth <= 0 || c.Charts.HeatmapRowHeight <= 0 {
		return fmt.Errorf("%w: chart dimensions must be positive", apperrors.ErrConfigInvalid)
	}

	return nil
}

// validRangeString does a shape check only; chain.ParseStrikeRange owns the semantics.
func validRangeString(s string) bool {
	parts := strings.Split(s, "-")
	return len(parts) == 2 && strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != ""
}

// LogOptions converts the logging section to logging.Options. The file path
// is dropped unless file logging is enabled.
func (c *Config) LogOptions() logging.Options {
	opts := logging.Options{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		MaxSizeMB:  c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAge,
	}
	if c.Logging.File {
		opts.FilePath = c.Logging.FilePath
	}
	return opts
}
