package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentConfig drives the telemetry agent: which server it reports to, which
// device identity it carries, and what shape of samples it emits.
type AgentConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Device    DeviceConfig    `yaml:"device"`
	Reporting ReportingConfig `yaml:"reporting"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	URL             string `yaml:"url"`
	RequestTimeout  int    `yaml:"request_timeout_s"`
	RetryInitialMs  int    `yaml:"retry_initial_ms"`
	RetryMaxMs      int    `yaml:"retry_max_ms"`
	RetryMaxRetries int    `yaml:"retry_max_attempts"`
}

type DeviceConfig struct {
	ID      string `yaml:"id"`
	Profile string `yaml:"profile"`
}

type ReportingConfig struct {
	Interval int `yaml:"interval_s"`
	Jitter   int `yaml:"jitter_s"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Profiles the agent knows how to synthesize.
var knownProfiles = map[string]bool{
	"normal":      true,
	"brute_force": true,
	"ddos":        true,
	"resource":    true,
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *AgentConfig {
	return &AgentConfig{
		Server: ServerConfig{
			URL:             "http://localhost:8080",
			RequestTimeout:  10,
			RetryInitialMs:  500,
			RetryMaxMs:      5000,
			RetryMaxRetries: 5,
		},
		Device: DeviceConfig{
			Profile: "normal",
		},
		Reporting: ReportingConfig{
			Interval: 30,
			Jitter:   5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config from file with env var overrides.
func Load(path string) (*AgentConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if v := os.Getenv("NETSENTRY_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("NETSENTRY_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("NETSENTRY_PROFILE"); v != "" {
		cfg.Device.Profile = v
	}
	if v := os.Getenv("NETSENTRY_INTERVAL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Reporting.Interval = n
		}
	}

	return cfg, nil
}

// Validate rejects configs the agent cannot run with.
func (c *AgentConfig) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("server.url is required")
	}
	if strings.TrimSpace(c.Device.ID) == "" {
		return fmt.Errorf("device.id is required")
	}
	if !knownProfiles[c.Device.Profile] {
		return fmt.Errorf("unknown profile %q", c.Device.Profile)
	}
	if c.Reporting.Interval <= 0 {
		return fmt.Errorf("reporting.interval_s must be positive")
	}
	return nil
}
