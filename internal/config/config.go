package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"physlab/domain/plot"
	"physlab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel string
	Plot     PlotConfig
	Fit      FitConfig
	Wolfram  WolframConfig
	Live     LiveConfig
}

// PlotConfig holds the chart theme
type PlotConfig struct {
	Theme plot.Theme
}

// FitConfig holds curve fitting settings
type FitConfig struct {
	MaxEvaluations int
}

// WolframConfig holds knowledge-engine client settings
type WolframConfig struct {
	AppID   string
	BaseURL string
	Timeout time.Duration
}

// LiveConfig holds live-refresh drawing settings
type LiveConfig struct {
	RefreshInterval time.Duration
	Sheet           string
	Addr            string
}

// Defaults mirrored by Load when the environment is silent
const (
	DefaultMaxEvaluations  = 100000
	DefaultWolframAppID    = "RVW9Y2-4XPJG9LX55"
	DefaultWolframBaseURL  = "https://api.wolframalpha.com/v2/query"
	DefaultWolframTimeout  = 30 * time.Second
	DefaultRefreshInterval = time.Second
	DefaultSheet           = "Sheet1"
	DefaultLiveAddr        = ":8090"
)

// Default returns the configuration used when no environment is present
func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Plot:     PlotConfig{Theme: plot.DefaultTheme()},
		Fit:      FitConfig{MaxEvaluations: DefaultMaxEvaluations},
		Wolfram: WolframConfig{
			AppID:   DefaultWolframAppID,
			BaseURL: DefaultWolframBaseURL,
			Timeout: DefaultWolframTimeout,
		},
		Live: LiveConfig{
			RefreshInterval: DefaultRefreshInterval,
			Sheet:           DefaultSheet,
			Addr:            DefaultLiveAddr,
		},
	}
}

// Load reads configuration from an optional .env file and environment
// variables and validates it
func Load() (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	config := Default()
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)
	config.Plot = *loadPlotConfig()
	config.Fit = FitConfig{MaxEvaluations: getEnvIntOrDefault("FIT_MAX_EVALUATIONS", DefaultMaxEvaluations)}
	config.Wolfram = *loadWolframConfig()
	config.Live = *loadLiveConfig()

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadPlotConfig() *PlotConfig {
	theme := plot.DefaultTheme()
	theme.FontScale = getEnvFloatOrDefault("PLOT_FONT_SCALE", theme.FontScale)
	theme.Grid = getEnvBoolOrDefault("PLOT_GRID", theme.Grid)
	theme.Width = getEnvIntOrDefault("PLOT_WIDTH", theme.Width)
	theme.Height = getEnvIntOrDefault("PLOT_HEIGHT", theme.Height)
	theme.Format = plot.Format(strings.ToLower(getEnvOrDefault("PLOT_FORMAT", string(theme.Format))))
	return &PlotConfig{Theme: theme}
}

func loadWolframConfig() *WolframConfig {
	return &WolframConfig{
		AppID:   getEnvOrDefault("WOLFRAM_APP_ID", DefaultWolframAppID),
		BaseURL: getEnvOrDefault("WOLFRAM_BASE_URL", DefaultWolframBaseURL),
		Timeout: getEnvDurationOrDefault("WOLFRAM_TIMEOUT", DefaultWolframTimeout),
	}
}

func loadLiveConfig() *LiveConfig {
	return &LiveConfig{
		RefreshInterval: getEnvDurationOrDefault("LIVE_REFRESH", DefaultRefreshInterval),
		Sheet:           getEnvOrDefault("LIVE_SHEET", DefaultSheet),
		Addr:            getEnvOrDefault("LIVE_ADDR", DefaultLiveAddr),
	}
}

// Validate checks the fields every command relies on
func Validate(config *Config) error {
	theme := config.Plot.Theme
	if theme.Width <= 0 || theme.Height <= 0 {
		return errors.ConfigInvalid("plot width and height must be positive")
	}
	if theme.FontScale <= 0 {
		return errors.ConfigInvalid("plot font scale must be positive")
	}
	if theme.Format != plot.FormatPNG && theme.Format != plot.FormatSVG {
		return errors.ConfigInvalid("plot format must be png or svg")
	}
	if config.Fit.MaxEvaluations <= 0 {
		return errors.ConfigInvalid("fit evaluation budget must be positive")
	}
	if config.Wolfram.BaseURL == "" {
		return errors.ConfigInvalid("wolfram base URL is required")
	}
	if config.Live.RefreshInterval <= 0 {
		return errors.ConfigInvalid("live refresh interval must be positive")
	}
	if config.Live.Sheet == "" {
		return errors.ConfigInvalid("live sheet name is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
