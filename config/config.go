// Package config loads gptbot service settings from an optional YAML file
// with GPTBOT_* environment variable overrides. Defaults are safe for local
// development with the mock model.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelSettings selects and tunes the LLM backend.
type ModelSettings struct {
	// Provider is one of "openai", "anthropic" or "mock".
	Provider string `yaml:"provider"`
	// Name is the provider-specific model identifier. Empty selects the
	// adapter default.
	Name string `yaml:"name"`
	// Instructions is the system prompt prepended to every conversation.
	Instructions string  `yaml:"instructions"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int64   `yaml:"max_tokens"`
}

// SessionSettings tunes the in-memory session store.
type SessionSettings struct {
	// TimeoutMinutes is how long until an idle session expires.
	TimeoutMinutes int `yaml:"timeout_minutes"`
	// CleanupInterval sweeps after every N resident sessions on update.
	CleanupInterval int `yaml:"cleanup_interval"`
	// BackgroundSweep additionally runs a timer-driven sweep so idle
	// sessions are evicted even when the store receives no updates.
	BackgroundSweep bool `yaml:"background_sweep"`
	// SweepIntervalMinutes is the background sweep period.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

// Settings is the root service configuration.
type Settings struct {
	AppName   string          `yaml:"app_name"`
	Addr      string          `yaml:"addr"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
	Model     ModelSettings   `yaml:"model"`
	Session   SessionSettings `yaml:"session"`
}

// Default returns the baseline configuration.
func Default() Settings {
	return Settings{
		AppName:   "gptbot",
		Addr:      ":8000",
		LogLevel:  "info",
		LogFormat: "json",
		Model: ModelSettings{
			Provider:     "mock",
			Instructions: "You are a helpful assistant. Keep responses concise and friendly.",
			Temperature:  0.7,
			MaxTokens:    4096,
		},
		Session: SessionSettings{
			TimeoutMinutes:       30,
			CleanupInterval:      10,
			BackgroundSweep:      false,
			SweepIntervalMinutes: 5,
		},
	}
}

// Load builds Settings from defaults, an optional YAML file (path may be
// empty) and GPTBOT_* environment overrides, then validates the result.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	s.applyEnv()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	setString(&s.Addr, "GPTBOT_ADDR")
	setString(&s.LogLevel, "GPTBOT_LOG_LEVEL")
	setString(&s.LogFormat, "GPTBOT_LOG_FORMAT")
	setString(&s.Model.Provider, "GPTBOT_MODEL_PROVIDER")
	setString(&s.Model.Name, "GPTBOT_MODEL_NAME")
	setString(&s.Model.Instructions, "GPTBOT_MODEL_INSTRUCTIONS")
	setInt(&s.Session.TimeoutMinutes, "GPTBOT_SESSION_TIMEOUT_MINUTES")
	setInt(&s.Session.CleanupInterval, "GPTBOT_SESSION_CLEANUP_INTERVAL")
	setBool(&s.Session.BackgroundSweep, "GPTBOT_SESSION_BACKGROUND_SWEEP")
	setInt(&s.Session.SweepIntervalMinutes, "GPTBOT_SESSION_SWEEP_INTERVAL_MINUTES")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate rejects configurations the service cannot run with.
func (s Settings) Validate() error {
	switch s.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", s.Model.Provider)
	}
	if s.Session.TimeoutMinutes <= 0 {
		return fmt.Errorf("session timeout must be positive, got %d", s.Session.TimeoutMinutes)
	}
	if s.Session.CleanupInterval < 0 {
		return fmt.Errorf("session cleanup interval must not be negative, got %d", s.Session.CleanupInterval)
	}
	if s.Session.BackgroundSweep && s.Session.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("background sweep interval must be positive, got %d", s.Session.SweepIntervalMinutes)
	}
	if s.Model.Temperature < 0 || s.Model.Temperature > 2 {
		return fmt.Errorf("model temperature out of range: %v", s.Model.Temperature)
	}
	return nil
}

// SessionTimeout returns the idle timeout as a duration.
func (s Settings) SessionTimeout() time.Duration {
	return time.Duration(s.Session.TimeoutMinutes) * time.Minute
}

// SweepInterval returns the background sweep period as a duration.
func (s Settings) SweepInterval() time.Duration {
	return time.Duration(s.Session.SweepIntervalMinutes) * time.Minute
}
