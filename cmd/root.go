// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Thermoquad/teamlink/pkg/config"
	"github.com/Thermoquad/teamlink/pkg/logging"
)

var (
	cfgFile string

	// v holds the flag bindings; config.LoadViper layers file, env and
	// defaults underneath them.
	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "teamlink",
	Short: "Teamlink bus node",
	Long: `Teamlink - a node on the shared team serial bus.

Watches the bus for framed messages, drives the local motor drivers when a
MotorSpeed command arrives, relays frames addressed between team members and
announces itself with a periodic heartbeat.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

Settings can also come from a config file (--config, or teamlink.yaml in the
working directory) and TEAMLINK_* environment variables, e.g.
TEAMLINK_BUS_PORT or TEAMLINK_HEARTBEAT_PERIOD.

For WebSocket authentication, the password is read from the TEAMLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Config file (yaml, json or toml)")

	// Serial connection flags
	pf.StringP("port", "p", "", "Serial port device")
	pf.IntP("baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.String("username", "", "Username for HTTP Basic auth")
	pf.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")

	mustBind("bus.port", "port")
	mustBind("bus.baud", "baud")
	mustBind("bus.url", "url")
	mustBind("bus.username", "username")
	mustBind("bus.noSSLVerify", "no-ssl-verify")
	mustBind("logging.level", "log-level")
	mustBind("logging.format", "log-format")
}

func mustBind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind %s: %v", flag, err))
	}
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadViper(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
