package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

func TestLoadAndValidate(t *testing.T) {
	content := `
window:
  start: "2025-03-01"
  end: "2025-07-31"

simulation:
  volume_min: 20000
  volume_max: 100000
  seed: 42

forecast:
  top_k: 3
  horizon_days: 30
  seasonal_period_days: 7
  order: [1, 1, 1]
  seasonal_order: [1, 1, 1]

report:
  annotate_days: [1, 15, -1]
  annotate_all_categories: true

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true
  retry_delay_base: 2s

storage:
  db_path: "./data/test.db"
  max_runs: 10

logging:
  level: "debug"
  format: "text"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Simulation.Seed != 42 {
		t.Errorf("Unexpected seed: %d", cfg.Simulation.Seed)
	}
	if cfg.Forecast.TopK != 3 {
		t.Errorf("Unexpected top_k: %d", cfg.Forecast.TopK)
	}
	if !cfg.Report.AnnotateAllCategories {
		t.Error("Expected annotate_all_categories to be true")
	}
	if cfg.Telegram.RetryDelayBase != 2*time.Second {
		t.Errorf("Unexpected retry_delay_base: %v", cfg.Telegram.RetryDelayBase)
	}
	// Defaults fill what the file leaves out.
	if cfg.Input.CategoryColumn != "alert.category" {
		t.Errorf("Unexpected category column: %s", cfg.Input.CategoryColumn)
	}
	if cfg.Telegram.MaxRetries != 3 {
		t.Errorf("Unexpected max_retries: %d", cfg.Telegram.MaxRetries)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	w, err := cfg.DayWindow()
	if err != nil {
		t.Fatalf("DayWindow failed: %v", err)
	}
	if w.Len() != 153 {
		t.Errorf("Expected 153 days, got %d", w.Len())
	}

	order, seasonal := cfg.ModelOrder()
	if order != [3]int{1, 1, 1} || seasonal != [3]int{1, 1, 1} {
		t.Errorf("Unexpected orders: %v %v", order, seasonal)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Forecast.TopK != 5 || cfg.Forecast.HorizonDays != 30 {
		t.Errorf("Unexpected forecast defaults: %+v", cfg.Forecast)
	}
	if len(cfg.Report.AnnotateDays) != 3 {
		t.Errorf("Unexpected annotate_days: %v", cfg.Report.AnnotateDays)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ATTACKCAST_FORECAST_TOP_K", "7")
	t.Setenv("ATTACKCAST_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Forecast.TopK != 7 {
		t.Errorf("Expected top_k 7 from env, got %d", cfg.Forecast.TopK)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected level warn from env, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unparsable start", mutate: func(c *Config) { c.Window.Start = "March 1st" }},
		{name: "end before start", mutate: func(c *Config) { c.Window.End = "2025-02-01" }},
		{name: "volume min equals max", mutate: func(c *Config) { c.Simulation.VolumeMax = c.Simulation.VolumeMin }},
		{name: "volume min above max", mutate: func(c *Config) { c.Simulation.VolumeMin = 200000 }},
		{name: "negative volume min", mutate: func(c *Config) { c.Simulation.VolumeMin = -1 }},
		{name: "zero top k", mutate: func(c *Config) { c.Forecast.TopK = 0 }},
		{name: "zero horizon", mutate: func(c *Config) { c.Forecast.HorizonDays = 0 }},
		{name: "seasonal period one", mutate: func(c *Config) { c.Forecast.SeasonalPeriodDays = 1 }},
		{name: "short order", mutate: func(c *Config) { c.Forecast.Order = []int{1, 1} }},
		{name: "negative seasonal order", mutate: func(c *Config) { c.Forecast.SeasonalOrder = []int{1, -1, 1} }},
		{name: "annotate day zero", mutate: func(c *Config) { c.Report.AnnotateDays = []int{0} }},
		{name: "annotate day 32", mutate: func(c *Config) { c.Report.AnnotateDays = []int{32} }},
		{name: "zero chunk size", mutate: func(c *Config) { c.Input.ChunkSize = 0 }},
		{name: "zero max runs", mutate: func(c *Config) { c.Storage.MaxRuns = 0 }},
		{name: "missing telegram token when enabled", mutate: func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.ChatID = "chat"
		}},
		{name: "missing telegram chat when enabled", mutate: func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "token"
		}},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "trace" }},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestValidateStorageDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Enabled = false
	cfg.Storage.DBPath = ""
	cfg.Storage.MaxRuns = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
