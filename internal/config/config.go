package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Window     WindowConfig     `mapstructure:"window"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Forecast   ForecastConfig   `mapstructure:"forecast"`
	Report     ReportConfig     `mapstructure:"report"`
	Input      InputConfig      `mapstructure:"input"`
	Output     OutputConfig     `mapstructure:"output"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// WindowConfig holds the inclusive reporting window as YYYY-MM-DD dates
type WindowConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// SimulationConfig holds synthetic volume generation configuration
type SimulationConfig struct {
	VolumeMin int    `mapstructure:"volume_min"`
	VolumeMax int    `mapstructure:"volume_max"`
	Seed      uint64 `mapstructure:"seed"`
}

// ForecastConfig holds ranking and model configuration
type ForecastConfig struct {
	TopK               int   `mapstructure:"top_k"`
	HorizonDays        int   `mapstructure:"horizon_days"`
	SeasonalPeriodDays int   `mapstructure:"seasonal_period_days"`
	Order              []int `mapstructure:"order"`
	SeasonalOrder      []int `mapstructure:"seasonal_order"`
	MaxIterations      int   `mapstructure:"max_iterations"`
}

// ReportConfig holds annotation configuration
type ReportConfig struct {
	AnnotateDays          []int `mapstructure:"annotate_days"`
	AnnotateAllCategories bool  `mapstructure:"annotate_all_categories"`
}

// InputConfig holds log cleaning and reading configuration
type InputConfig struct {
	RawLogPath      string `mapstructure:"raw_log_path"`
	CleanedLogPath  string `mapstructure:"cleaned_log_path"`
	TimestampColumn string `mapstructure:"timestamp_column"`
	CategoryColumn  string `mapstructure:"category_column"`
	ChunkSize       int    `mapstructure:"chunk_size"`
}

// OutputConfig holds rendering hand-off file paths
type OutputConfig struct {
	SeriesPath string `mapstructure:"series_path"`
	ReportPath string `mapstructure:"report_path"`
}

// StorageConfig holds run history configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MetricsConfig holds metrics export configuration. An empty path disables export.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envKeyReplacer maps nested keys to environment names, e.g. forecast.top_k to ATTACKCAST_FORECAST_TOP_K.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ATTACKCAST")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Window defaults
	v.SetDefault("window.start", "2025-03-01")
	v.SetDefault("window.end", "2025-07-31")

	// Simulation defaults
	v.SetDefault("simulation.volume_min", 20000)
	v.SetDefault("simulation.volume_max", 100000)
	v.SetDefault("simulation.seed", 0)

	// Forecast defaults
	v.SetDefault("forecast.top_k", 5)
	v.SetDefault("forecast.horizon_days", 30)
	v.SetDefault("forecast.seasonal_period_days", 7)
	v.SetDefault("forecast.order", []int{1, 1, 1})
	v.SetDefault("forecast.seasonal_order", []int{1, 1, 1})
	v.SetDefault("forecast.max_iterations", 5000)

	// Report defaults
	v.SetDefault("report.annotate_days", []int{1, 15, -1})
	v.SetDefault("report.annotate_all_categories", false)

	// Input defaults
	v.SetDefault("input.raw_log_path", "./data/honeypot_logs.csv")
	v.SetDefault("input.cleaned_log_path", "./data/cleaned_logs.csv")
	v.SetDefault("input.timestamp_column", "@timestamp")
	v.SetDefault("input.category_column", "alert.category")
	v.SetDefault("input.chunk_size", 5000)

	// Output defaults
	v.SetDefault("output.series_path", "./data/forecast_series.csv")
	v.SetDefault("output.report_path", "./data/forecast_report.json")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "./data/attackcast.db")
	v.SetDefault("storage.max_runs", 50)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Metrics defaults
	v.SetDefault("metrics.textfile_path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Validate Window config
	if _, err := c.DayWindow(); err != nil {
		return err
	}

	// Validate Simulation config
	if c.Simulation.VolumeMin < 0 {
		return fmt.Errorf("simulation.volume_min must not be negative")
	}
	if c.Simulation.VolumeMin >= c.Simulation.VolumeMax {
		return fmt.Errorf("simulation.volume_min must be less than simulation.volume_max")
	}

	// Validate Forecast config
	if c.Forecast.TopK < 1 {
		return fmt.Errorf("forecast.top_k must be at least 1")
	}
	if c.Forecast.HorizonDays < 1 {
		return fmt.Errorf("forecast.horizon_days must be at least 1")
	}
	if c.Forecast.SeasonalPeriodDays < 2 {
		return fmt.Errorf("forecast.seasonal_period_days must be at least 2")
	}
	if err := validateOrder("forecast.order", c.Forecast.Order); err != nil {
		return err
	}
	if err := validateOrder("forecast.seasonal_order", c.Forecast.SeasonalOrder); err != nil {
		return err
	}
	if c.Forecast.MaxIterations < 0 {
		return fmt.Errorf("forecast.max_iterations must not be negative")
	}

	// Validate Report config
	for _, d := range c.Report.AnnotateDays {
		if d != -1 && (d < 1 || d > 31) {
			return fmt.Errorf("report.annotate_days must contain -1 or days between 1 and 31, got %d", d)
		}
	}

	// Validate Input config
	if c.Input.TimestampColumn == "" || c.Input.CategoryColumn == "" {
		return fmt.Errorf("input.timestamp_column and input.category_column are required")
	}
	if c.Input.ChunkSize < 1 {
		return fmt.Errorf("input.chunk_size must be at least 1")
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxRuns < 1 {
			return fmt.Errorf("storage.max_runs must be at least 1")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func validateOrder(key string, order []int) error {
	if len(order) != 3 {
		return fmt.Errorf("%s must have exactly 3 entries, got %d", key, len(order))
	}
	for _, o := range order {
		if o < 0 {
			return fmt.Errorf("%s must not contain negative entries", key)
		}
	}
	return nil
}

// DayWindow parses the configured reporting window
func (c *Config) DayWindow() (models.DayWindow, error) {
	start, err := models.ParseDay(c.Window.Start)
	if err != nil {
		return models.DayWindow{}, fmt.Errorf("window.start: %w", err)
	}
	end, err := models.ParseDay(c.Window.End)
	if err != nil {
		return models.DayWindow{}, fmt.Errorf("window.end: %w", err)
	}
	return models.NewDayWindow(start, end)
}

// ModelOrder returns the non-seasonal and seasonal orders as fixed-size arrays.
// It must only be called on a validated config.
func (c *Config) ModelOrder() (order, seasonal [3]int) {
	copy(order[:], c.Forecast.Order)
	copy(seasonal[:], c.Forecast.SeasonalOrder)
	return order, seasonal
}
