// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads teamlink settings from a file, TEAMLINK_* environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Thermoquad/teamlink/pkg/node"
	"github.com/Thermoquad/teamlink/pkg/teamlink"
	"github.com/Thermoquad/teamlink/pkg/transport"
)

// EnvPrefix is the prefix of environment overrides, e.g. TEAMLINK_BUS_PORT.
const EnvPrefix = "TEAMLINK"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// NodeConfig identifies this node on the bus.
type NodeConfig struct {
	ID        string `mapstructure:"id"`
	Broadcast string `mapstructure:"broadcast"`
	Team      string `mapstructure:"team"`
}

// BusConfig selects the bus transport. URL takes precedence over Port.
type BusConfig struct {
	Port         string        `mapstructure:"port"`
	Baud         int           `mapstructure:"baud"`
	URL          string        `mapstructure:"url"`
	Username     string        `mapstructure:"username"`
	NoSSLVerify  bool          `mapstructure:"noSSLVerify"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
}

// HeartbeatConfig controls the liveness frame.
type HeartbeatConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Period  time.Duration `mapstructure:"period"`
	Payload string        `mapstructure:"payload"`
}

// MotorConfig is one motor driver link, in selector order.
type MotorConfig struct {
	Name string `mapstructure:"name"`
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// LumberjackConfig configures the rolling log file.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets level, encoding and optional file output.
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the top-level configuration.
type Config struct {
	Node      NodeConfig      `mapstructure:"node"`
	Bus       BusConfig       `mapstructure:"bus"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Motors    []MotorConfig   `mapstructure:"motors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Load reads path (YAML, JSON or TOML), then applies environment overrides.
// With an empty path it looks for teamlink.yaml in . and ./configs; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadViper(viper.New(), path)
}

// LoadViper is Load on a caller-supplied viper, so command-line flags bound
// to v take part in the lookup.
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("teamlink")
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults installs the stock values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("node.id", string(teamlink.DefaultSelf))
	v.SetDefault("node.broadcast", string(teamlink.DefaultBroadcast))
	v.SetDefault("node.team", string(teamlink.DefaultTeam))

	v.SetDefault("bus.port", "")
	v.SetDefault("bus.baud", 9600)
	v.SetDefault("bus.url", "")
	v.SetDefault("bus.username", "")
	v.SetDefault("bus.noSSLVerify", false)
	v.SetDefault("bus.pollInterval", "10ms")
	v.SetDefault("bus.readTimeout", "100ms")

	v.SetDefault("heartbeat.enabled", true)
	v.SetDefault("heartbeat.period", "10s")
	v.SetDefault("heartbeat.payload", teamlink.DefaultHeartbeatPayload)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 7)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.addr", "")
}

// Validate checks the settings that the node cannot run without.
func (c *Config) Validate() error {
	if len(c.Node.ID) != 1 {
		return fmt.Errorf("%w: node.id must be a single byte, got %q", ErrInvalid, c.Node.ID)
	}
	if len(c.Node.Broadcast) != 1 {
		return fmt.Errorf("%w: node.broadcast must be a single byte, got %q", ErrInvalid, c.Node.Broadcast)
	}
	if _, err := c.Roster(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Heartbeat.Enabled && c.Heartbeat.Period <= 0 {
		return fmt.Errorf("%w: heartbeat.period must be positive, got %v", ErrInvalid, c.Heartbeat.Period)
	}
	if _, err := teamlink.BuildFrame([]byte(c.Heartbeat.Payload), c.Node.ID[0], c.Node.Broadcast[0]); err != nil {
		return fmt.Errorf("%w: heartbeat.payload: %v", ErrInvalid, err)
	}
	for i, m := range c.Motors {
		if m.Port == "" {
			return fmt.Errorf("%w: motors[%d]: port is required", ErrInvalid, i)
		}
		if m.Baud <= 0 {
			return fmt.Errorf("%w: motors[%d]: baud must be positive", ErrInvalid, i)
		}
	}
	return nil
}

// Roster builds the team roster from the node section.
func (c *Config) Roster() (*teamlink.Roster, error) {
	if len(c.Node.ID) != 1 || len(c.Node.Broadcast) != 1 {
		return nil, fmt.Errorf("node id and broadcast must be single bytes")
	}
	return teamlink.NewRoster(c.Node.ID[0], c.Node.Broadcast[0], []byte(c.Node.Team))
}

// NodeConfig converts the settings into a node.Config.
func (c *Config) NodeConfig() (node.Config, error) {
	roster, err := c.Roster()
	if err != nil {
		return node.Config{}, err
	}
	return node.Config{
		Roster:           roster,
		Commands:         teamlink.DefaultCommandTable(),
		HeartbeatPayload: []byte(c.Heartbeat.Payload),
		HeartbeatPeriod:  c.Heartbeat.Period,
		HeartbeatEnabled: c.Heartbeat.Enabled,
		PollInterval:     c.Bus.PollInterval,
	}, nil
}

// TransportOptions converts the bus section into transport.Options.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Port:        c.Bus.Port,
		Baud:        c.Bus.Baud,
		ReadTimeout: c.Bus.ReadTimeout,
		URL:         c.Bus.URL,
		Username:    c.Bus.Username,
		NoSSLVerify: c.Bus.NoSSLVerify,
	}
}
