package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/innkeep/innkeep/internal/scheduler"
)

// Config holds all innkeep configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ExtractionTimeout     string            `json:"extraction_timeout"`
	ToolTimeout           string            `json:"tool_timeout"`
	OverallDeadline       string            `json:"overall_deadline"`
	AvailabilityBatchSize int               `json:"availability_batch_size"`
	DBPath                string            `json:"db_path"`
	LogLevel              string            `json:"log_level"`
	LogFormat             string            `json:"log_format"`
	RouterEngine          string            `json:"router_engine"`
	MaintenanceSchedule   string            `json:"maintenance_schedule"`
	Providers             map[string]string `json:"providers"`
}

func defaultConfig() Config {
	return Config{
		ExtractionTimeout:     "8s",
		ToolTimeout:           "10s",
		OverallDeadline:       "60s",
		AvailabilityBatchSize: 3,
		DBPath:                filepath.Join(innkeepDir(), "innkeep.db"),
		LogLevel:              "info",
		LogFormat:             "text",
		RouterEngine:          "expr",
		MaintenanceSchedule:   scheduler.DefaultSchedule,
		Providers:             map[string]string{"hotel_booking": "inproc"},
	}
}

func innkeepDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".innkeep"
	}
	return filepath.Join(home, ".innkeep")
}

func settingsPath() string {
	return filepath.Join(innkeepDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("INNKEEP_EXTRACTION_TIMEOUT"); v != "" {
		cfg.ExtractionTimeout = v
	}
	if v := os.Getenv("INNKEEP_TOOL_TIMEOUT"); v != "" {
		cfg.ToolTimeout = v
	}
	if v := os.Getenv("INNKEEP_OVERALL_DEADLINE"); v != "" {
		cfg.OverallDeadline = v
	}
	if v := os.Getenv("INNKEEP_AVAILABILITY_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AvailabilityBatchSize = n
		}
	}
	if v := os.Getenv("INNKEEP_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("INNKEEP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("INNKEEP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("INNKEEP_ROUTER_ENGINE"); v != "" {
		cfg.RouterEngine = v
	}
	if v := os.Getenv("INNKEEP_MAINTENANCE_SCHEDULE"); v != "" {
		cfg.MaintenanceSchedule = v
	}

	return cfg
}

// duration parses a config duration, falling back when the value is invalid.
func duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c Config) extractionTimeout() time.Duration {
	return duration(c.ExtractionTimeout, 8*time.Second)
}

func (c Config) toolTimeout() time.Duration {
	return duration(c.ToolTimeout, 10*time.Second)
}

func (c Config) overallDeadline() time.Duration {
	return duration(c.OverallDeadline, 60*time.Second)
}
