// Package config loads the ztmc.json framework configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the ztmc.json configuration file.
type Config struct {
	PolicyFile  string            `json:"policy_file"`
	AuditLog    string            `json:"audit_log"`
	MetricsFile string            `json:"metrics_file"`
	Server      ServerConfig      `json:"server"`
	Trust       TrustConfig       `json:"trust"`
	Remediation RemediationConfig `json:"remediation"`
}

// ServerConfig configures the decision API server.
type ServerConfig struct {
	Port int `json:"port"`
}

// TrustConfig is the static context-trust configuration used by the PDP.
type TrustConfig struct {
	TrustedNetworks []string    `json:"trusted_networks"`
	TrustedDevices  []string    `json:"trusted_devices"`
	BusinessHours   HoursConfig `json:"business_hours"`
}

// HoursConfig is a half-open hour-of-day window [Start, End) in local time.
type HoursConfig struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RemediationConfig configures the auto-remediation dispatcher.
type RemediationConfig struct {
	// AdapterTimeoutSeconds bounds each cloud adapter call.
	AdapterTimeoutSeconds int `json:"adapter_timeout_seconds"`
}

// Default returns the built-in configuration used when no ztmc.json exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads ztmc.json from the current directory or a parent directory,
// falling back to the defaults when no file is found.
func LoadConfig() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	for {
		configPath := filepath.Join(dir, "ztmc.json")
		if _, err := os.Stat(configPath); err == nil {
			return LoadConfigFromPath(configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return Default(), nil
}

// LoadConfigFromPath loads the configuration from a specific path.
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PolicyFile == "" {
		c.PolicyFile = "policies.json"
	}
	if c.AuditLog == "" {
		c.AuditLog = "ztmc_framework_log.json"
	}
	if c.MetricsFile == "" {
		c.MetricsFile = "ztmc_framework_metrics.json"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Trust.TrustedNetworks) == 0 {
		c.Trust.TrustedNetworks = []string{"192.168.", "10.0."}
	}
	if len(c.Trust.TrustedDevices) == 0 {
		c.Trust.TrustedDevices = []string{"device-laptop-001", "device-admin-001"}
	}
	if c.Trust.BusinessHours.Start == 0 && c.Trust.BusinessHours.End == 0 {
		c.Trust.BusinessHours = HoursConfig{Start: 8, End: 20}
	}
	if c.Remediation.AdapterTimeoutSeconds == 0 {
		c.Remediation.AdapterTimeoutSeconds = 5
	}
}

func (c *Config) validate() error {
	h := c.Trust.BusinessHours
	if h.Start < 0 || h.Start > 23 || h.End < 0 || h.End > 24 || h.Start >= h.End {
		return fmt.Errorf("invalid business hours window [%d, %d)", h.Start, h.End)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
