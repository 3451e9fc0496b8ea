// Package config provides configuration loading for the plugin controller.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ChannelKind selects the transport to the execution host.
type ChannelKind string

const (
	// ChannelNATS bridges to the host over a NATS subject pair.
	ChannelNATS ChannelKind = "nats"
	// ChannelWebSocket bridges to the host over one websocket connection.
	ChannelWebSocket ChannelKind = "websocket"
)

// Config is the complete controller configuration.
type Config struct {
	Channel  ChannelConfig `yaml:"channel"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Log      LogConfig     `yaml:"log"`
}

// ChannelConfig configures the host transport.
type ChannelConfig struct {
	// Kind is "nats" or "websocket".
	Kind ChannelKind `yaml:"kind"`
	// NATSURL is the NATS server URL (kind=nats).
	NATSURL string `yaml:"nats_url"`
	// SubjectOut is the subject outbound messages are published to.
	SubjectOut string `yaml:"subject_out"`
	// SubjectIn is the subject inbound messages arrive on.
	SubjectIn string `yaml:"subject_in"`
	// WSURL is the host bridge endpoint (kind=websocket).
	WSURL string `yaml:"ws_url"`
}

// TimeoutConfig configures request deadlines. Only the initial settings load
// carries one; all other round trips wait indefinitely.
type TimeoutConfig struct {
	SettingsLoad time.Duration `yaml:"settings_load"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Channel: ChannelConfig{
			Kind:       ChannelNATS,
			NATSURL:    "nats://127.0.0.1:4222",
			SubjectOut: "plugin.host.inbox",
			SubjectIn:  "plugin.ui.inbox",
			WSURL:      "ws://127.0.0.1:8089/plugin",
		},
		Timeouts: TimeoutConfig{
			SettingsLoad: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Channel.Kind {
	case ChannelNATS:
		if c.Channel.NATSURL == "" {
			return fmt.Errorf("channel.nats_url is required")
		}
		if c.Channel.SubjectOut == "" || c.Channel.SubjectIn == "" {
			return fmt.Errorf("channel.subject_out and channel.subject_in are required")
		}
	case ChannelWebSocket:
		if c.Channel.WSURL == "" {
			return fmt.Errorf("channel.ws_url is required")
		}
	default:
		return fmt.Errorf("channel.kind must be %q or %q", ChannelNATS, ChannelWebSocket)
	}
	if c.Timeouts.SettingsLoad <= 0 {
		return fmt.Errorf("timeouts.settings_load must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
