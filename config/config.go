package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Model tiers offered by the inference provider.
const (
	ProModel   = "gemini-3-pro-preview"
	FlashModel = "gemini-3-flash-preview"
	LiteModel  = "gemini-flash-lite-latest"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	DataDir    string `json:"data_dir"`
	ResultsDir string `json:"results_dir"`

	// APIKey is the explicitly configured inference credential. When
	// empty the gateway falls back to the GEMINI_API_KEY environment
	// variable; absence of both is a recoverable condition, not a crash.
	APIKey string `json:"api_key"`

	// Cooldown policy, in seconds. The values respect provider rate
	// limits and must match operator expectations.
	StepCooldownSec   int `json:"step_cooldown_sec"`
	SearchCooldownSec int `json:"search_cooldown_sec"`
	ProCooldownSec    int `json:"pro_cooldown_sec"`
	QuotaReserveSec   int `json:"quota_reserve_sec"`

	// Retry policy for the inference gateway.
	MaxRetries        int `json:"max_retries"`
	RetryBaseDelaySec int `json:"retry_base_delay_sec"`

	// ForecastDays is the horizon of the price forecast series; the
	// series always holds ForecastDays+1 points.
	ForecastDays int `json:"forecast_days"`

	// HistoryRetention caps the number of archived runs kept in the
	// history store. Zero keeps everything.
	HistoryRetention int `json:"history_retention"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()
	return cfg
}

func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir: root,
		DataDir:    filepath.Join(root, "data"),
		ResultsDir: filepath.Join(root, "results"),

		StepCooldownSec:   6,
		SearchCooldownSec: 35,
		ProCooldownSec:    45,
		QuotaReserveSec:   35,

		MaxRetries:        3,
		RetryBaseDelaySec: 10,

		ForecastDays:     180,
		HistoryRetention: 0,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("STGTRADE_PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("STGTRADE_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("STGTRADE_RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("GEMINI_API_KEY"); val != "" && c.APIKey == "" {
		c.APIKey = val
	}
	if val := os.Getenv("STGTRADE_HISTORY_RETENTION"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			c.HistoryRetention = n
		}
	}
	if val := os.Getenv("STGTRADE_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	if strings.TrimSpace(c.ResultsDir) == "" {
		return fmt.Errorf("results_dir is required")
	}
	if c.ForecastDays <= 0 {
		return fmt.Errorf("forecast_days must be positive")
	}
	if c.StepCooldownSec < 0 || c.SearchCooldownSec < 0 || c.ProCooldownSec < 0 || c.QuotaReserveSec < 0 {
		return fmt.Errorf("cooldowns must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.RetryBaseDelaySec <= 0 {
		return fmt.Errorf("retry_base_delay_sec must be positive")
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("history_retention must not be negative")
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.DataDir, c.ResultsDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
