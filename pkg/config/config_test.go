// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "W", cfg.Node.ID)
	assert.Equal(t, "X", cfg.Node.Broadcast)
	assert.Equal(t, "WSDAX", cfg.Node.Team)
	assert.Equal(t, 9600, cfg.Bus.Baud)
	assert.Equal(t, 10*time.Millisecond, cfg.Bus.PollInterval)
	assert.True(t, cfg.Heartbeat.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat.Period)
	assert.Equal(t, "DS444", cfg.Heartbeat.Payload)
	assert.Empty(t, cfg.Motors)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, "teamlink.yaml", `
node:
  id: S
  broadcast: X
  team: WSDAX
bus:
  port: /dev/ttyUSB0
  baud: 115200
heartbeat:
  period: 2s
  payload: HELLO
motors:
  - name: left
    port: /dev/ttyUSB1
    baud: 9600
  - name: right
    port: /dev/ttyUSB2
    baud: 9600
metrics:
  addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "S", cfg.Node.ID)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Bus.Port)
	assert.Equal(t, 115200, cfg.Bus.Baud)
	assert.Equal(t, 2*time.Second, cfg.Heartbeat.Period)
	require.Len(t, cfg.Motors, 2)
	assert.Equal(t, "right", cfg.Motors[1].Name)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)

	nc, err := cfg.NodeConfig()
	require.NoError(t, err)
	assert.Equal(t, byte('S'), nc.Roster.Self())
	assert.Equal(t, []byte("HELLO"), nc.HeartbeatPayload)
	assert.Len(t, nc.Commands, 6)

	opts := cfg.TransportOptions()
	assert.Equal(t, "/dev/ttyUSB0", opts.Port)
	assert.Equal(t, 115200, opts.Baud)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TEAMLINK_BUS_PORT", "/dev/ttyACM0")
	t.Setenv("TEAMLINK_HEARTBEAT_PERIOD", "500ms")

	path := writeConfig(t, "teamlink.yaml", "bus:\n  port: /dev/ttyUSB0\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Bus.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Heartbeat.Period)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty id", func(c *Config) { c.Node.ID = "" }},
		{"multi-byte id", func(c *Config) { c.Node.ID = "WW" }},
		{"multi-byte broadcast", func(c *Config) { c.Node.Broadcast = "XY" }},
		{"id not in team", func(c *Config) { c.Node.ID = "Q" }},
		{"broadcast not in team", func(c *Config) { c.Node.Broadcast = "Q" }},
		{"id equals broadcast", func(c *Config) { c.Node.Broadcast = "W" }},
		{"zero period", func(c *Config) { c.Heartbeat.Period = 0 }},
		{"payload with end marker", func(c *Config) { c.Heartbeat.Payload = "aYBb" }},
		{"motor without port", func(c *Config) { c.Motors = []MotorConfig{{Name: "m1", Baud: 9600}} }},
		{"motor without baud", func(c *Config) { c.Motors = []MotorConfig{{Name: "m1", Port: "/dev/x"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_DisabledHeartbeatIgnoresPeriod(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Heartbeat.Enabled = false
	cfg.Heartbeat.Period = 0
	assert.NoError(t, cfg.Validate())
}
