// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
	"github.com/Thermoquad/teamlink/pkg/transport"
)

var rawLogShowStarts bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display bus events in human-readable format",
	Long: `Continuously frame and display bus traffic as it arrives.

This is a passive sniffer: it runs the same framing as the node and prints
every event with a timestamp, but never forwards frames, never drives motors
and never sends a heartbeat.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogShowStarts, "show-starts", false, "Also print start-marker events")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	roster, err := cfg.Roster()
	if err != nil {
		return err
	}

	conn, connInfo, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()
	closeOnDone(ctx, conn)

	fmt.Printf("Teamlink - Raw Bus Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Team: %s\n", roster.Members())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	acc := teamlink.NewAccumulator(teamlink.DefaultCommandTable(), roster)
	stats := teamlink.NewStatistics()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		stats.AddBytes(n)
		for i := 0; i < n; i++ {
			for _, e := range acc.Feed(buf[i]) {
				stats.Update(e)
				if e.Kind == teamlink.EventFrameStart && !rawLogShowStarts {
					continue
				}
				fmt.Fprint(os.Stdout, teamlink.FormatEventLine(e))
			}
		}

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, transport.ErrConnectionClosed) {
				fmt.Print("\n" + stats.String())
				return nil
			}
			logger.Warn("Read error", zap.Error(err))
			time.Sleep(cfg.Bus.PollInterval)
		}
	}
}
