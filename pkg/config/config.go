// Package config provides configuration loading, validation, and secret
// management for the bot. It handles the YAML config file, environment
// variable overrides, and the encrypted secrets store.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM provider constants.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
)

// Default model per provider.
const (
	DefaultOpenRouterModel = "anthropic/claude-sonnet-4"
	DefaultAnthropicModel  = "claude-sonnet-4-20250514"
	DefaultGoogleModel     = "gemini-2.0-flash"
	DefaultOpenAIModel     = "gpt-5"
)

// Defaults for the agentic loop and monitor.
const (
	DefaultMaxIterations    = 5
	DefaultContextBudget    = 10000
	DefaultMaxReplyTokens   = 4096
	DefaultLLMTimeoutSec    = 60
	DefaultToolTimeoutSec   = 30
	DefaultApprovalTTLMin   = 10
	DefaultMonitorInterval  = 300
	DefaultAlertCooldownMin = 30
	DefaultStalenessHours   = 8
	DefaultCriticalStreak   = 3
)

// LLMConfig selects and tunes the language model backend.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	MaxReplyTokens int    `yaml:"max_reply_tokens"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// BrainConfig tunes the agentic loop.
type BrainConfig struct {
	MaxIterations  int `yaml:"max_iterations"`
	ContextBudget  int `yaml:"context_budget"`
	ToolTimeoutSec int `yaml:"tool_timeout_sec"`
}

// TelegramConfig holds transport settings. The bot token lives in the secrets
// store, not here.
type TelegramConfig struct {
	AllowedUsers []string `yaml:"allowed_users"`
	PollTimeout  int      `yaml:"poll_timeout_sec"`
}

// GitHubConfig holds source-control settings.
type GitHubConfig struct {
	DefaultOwner string `yaml:"default_owner"`
}

// RailwayConfig maps project names to Railway project IDs for status
// lookups. The API token lives in the secrets store.
type RailwayConfig struct {
	Projects map[string]string `yaml:"projects"`
}

// OmniConfig points at the content-generation service.
type OmniConfig struct {
	BaseURL string `yaml:"base_url"`
}

// MonitorConfig tunes the background health monitor.
type MonitorConfig struct {
	Enabled          bool `yaml:"enabled"`
	IntervalSec      int  `yaml:"interval_sec"`
	StalenessHours   int  `yaml:"staleness_hours"`
	AlertCooldownMin int  `yaml:"alert_cooldown_min"`
	CriticalStreak   int  `yaml:"critical_streak"`
}

// Config is the top-level configuration for the bot process.
type Config struct {
	DatabasePath string `yaml:"database_path"`
	HealthAddr   string `yaml:"health_addr"`
	// PrometheusURL enables usage reporting in /status when a Prometheus
	// server scrapes this process. Empty disables it.
	PrometheusURL string         `yaml:"prometheus_url"`
	LLM          LLMConfig      `yaml:"llm"`
	Brain        BrainConfig    `yaml:"brain"`
	Telegram     TelegramConfig `yaml:"telegram"`
	GitHub       GitHubConfig   `yaml:"github"`
	Railway      RailwayConfig  `yaml:"railway"`
	Omni         OmniConfig     `yaml:"omni"`
	Monitor      MonitorConfig  `yaml:"monitor"`
}

// DefaultConfig returns a config populated with defaults. Load applies the
// YAML file and environment overrides on top of it.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "phoenix.db",
		HealthAddr:   ":8090",
		LLM: LLMConfig{
			Provider:       ProviderOpenRouter,
			Model:          DefaultOpenRouterModel,
			MaxReplyTokens: DefaultMaxReplyTokens,
			TimeoutSec:     DefaultLLMTimeoutSec,
		},
		Brain: BrainConfig{
			MaxIterations:  DefaultMaxIterations,
			ContextBudget:  DefaultContextBudget,
			ToolTimeoutSec: DefaultToolTimeoutSec,
		},
		Telegram: TelegramConfig{
			PollTimeout: 30,
		},
		Monitor: MonitorConfig{
			Enabled:          true,
			IntervalSec:      DefaultMonitorInterval,
			StalenessHours:   DefaultStalenessHours,
			AlertCooldownMin: DefaultAlertCooldownMin,
			CriticalStreak:   DefaultCriticalStreak,
		},
	}
}

// Load reads the config file at path (if it exists), applies environment
// overrides, and validates the result. A missing file is not an error; the
// defaults plus environment are often sufficient.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to env overrides.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides for deployment platforms
// where a config file is inconvenient.
func (c *Config) applyEnv() {
	if v := os.Getenv("PHOENIX_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("PHOENIX_PROMETHEUS_URL"); v != "" {
		c.PrometheusURL = v
	}
	if v := os.Getenv("PHOENIX_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("PHOENIX_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GITHUB_DEFAULT_OWNER"); v != "" {
		c.GitHub.DefaultOwner = v
	}
	if v := os.Getenv("OMNI_AGENT_URL"); v != "" {
		c.Omni.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_ALLOWED_USERS"); v != "" {
		users := strings.Split(v, ",")
		c.Telegram.AllowedUsers = c.Telegram.AllowedUsers[:0]
		for _, u := range users {
			if u = strings.TrimSpace(u); u != "" {
				c.Telegram.AllowedUsers = append(c.Telegram.AllowedUsers, u)
			}
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderAnthropic, ProviderGoogle, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm provider %q (want %s, %s, %s, or %s)",
			c.LLM.Provider, ProviderOpenRouter, ProviderAnthropic, ProviderGoogle, ProviderOpenAI)
	}
	if c.Brain.MaxIterations <= 0 {
		return fmt.Errorf("brain.max_iterations must be positive, got %d", c.Brain.MaxIterations)
	}
	if c.Brain.ContextBudget <= 0 {
		return fmt.Errorf("brain.context_budget must be positive, got %d", c.Brain.ContextBudget)
	}
	if c.Monitor.Enabled && c.Monitor.IntervalSec <= 0 {
		return fmt.Errorf("monitor.interval_sec must be positive, got %d", c.Monitor.IntervalSec)
	}
	return nil
}

// LLMTimeout returns the model invocation timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSec) * time.Second
}

// ToolTimeout returns the tool handler timeout as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Brain.ToolTimeoutSec) * time.Second
}

// MonitorInterval returns the monitor tick interval as a duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalSec) * time.Second
}

// AlertCooldown returns the alert cooldown window as a duration.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.Monitor.AlertCooldownMin) * time.Minute
}

// StalenessWindow returns the no-successful-run alert window as a duration.
func (c *Config) StalenessWindow() time.Duration {
	return time.Duration(c.Monitor.StalenessHours) * time.Hour
}
