// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/teamlink/pkg/logging"
	"github.com/Thermoquad/teamlink/pkg/node"
	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

var (
	monitorShowStarts bool
	monitorDryRun     bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the bus node with an interactive display",
	Long: `Run the node exactly like 'run', with a terminal UI in place of log output.

The display shows live statistics, the last commanded motor speed, the
heartbeat and a scrolling event log (PgUp/PgDn). Text typed at the prompt is
written onto the bus when Enter is pressed; Go escapes such as \x41 are
accepted. Esc or Ctrl+C quits.

Logs go only to the configured log file, if any.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowStarts, "show-starts", false, "Also list start-marker events")
	monitorCmd.Flags().BoolVar(&monitorDryRun, "dry-run", false, "Log motor requests instead of writing them")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The terminal belongs to the UI
	logger, err := logging.NewWithWriter(cfg.Logging, io.Discard)
	if err != nil {
		return err
	}
	defer logger.Sync()

	nodeCfg, err := cfg.NodeConfig()
	if err != nil {
		return err
	}

	conn, connInfo, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	actuators, closeMotors, err := openActuators(cfg, logger, monitorDryRun)
	if err != nil {
		return err
	}
	defer closeMotors()

	stats := teamlink.NewStatistics()
	var n *node.Node

	m := newMonitorModel(connInfo, nodeCfg.Roster, stats, monitorShowStarts, func(p []byte) error {
		return n.Inject(p)
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	n, err = node.New(conn, nodeCfg, actuators,
		node.WithLogger(logger),
		node.WithObserver(node.StatsObserver(stats)),
		node.WithObserver(logging.NewEventLogger(logger, noiseLogRate, noiseLogRate)),
		node.WithObserver(node.ObserverFunc(func(e teamlink.Event) {
			p.Send(busEventMsg{event: e})
		})),
	)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	closeOnDone(ctx, conn)

	go func() {
		err := n.Run(ctx)
		p.Send(nodeStoppedMsg{err: err})
	}()

	_, err = p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
