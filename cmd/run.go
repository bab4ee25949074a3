// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Thermoquad/teamlink/pkg/capture"
	"github.com/Thermoquad/teamlink/pkg/logging"
	"github.com/Thermoquad/teamlink/pkg/metrics"
	"github.com/Thermoquad/teamlink/pkg/node"
	"github.com/Thermoquad/teamlink/pkg/teamlink"
	"github.com/Thermoquad/teamlink/pkg/transport"
)

var (
	runStatsInterval int
	runCapture       string
	runDryRun        bool
)

// Noise events (overflow, rejected, short frames) logged per second.
const noiseLogRate = 5

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bus node",
	Long: `Run the node headless: relay team frames, drive the motors on MotorSpeed
commands and send the heartbeat.

Every event is logged. Statistics are printed every --stats-interval seconds
and once more on exit. With --capture, every raw read is recorded to a CBOR
file that the replay command can analyze later.

Without configured motors (or with --dry-run) motor requests are only logged.`,
	RunE: runNode,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&runStatsInterval, "stats-interval", "i", 30, "Statistics print interval in seconds (0 disables)")
	runCmd.Flags().StringVar(&runCapture, "capture", "", "Record raw bus reads to this file")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Log motor requests instead of writing them")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	if err := v.BindPFlag("metrics.addr", runCmd.Flags().Lookup("metrics-addr")); err != nil {
		panic(err)
	}
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
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

	actuators, closeMotors, err := openActuators(cfg, logger, runDryRun)
	if err != nil {
		return err
	}
	defer closeMotors()

	stats := teamlink.NewStatistics()
	opts := []node.Option{
		node.WithLogger(logger),
		node.WithObserver(node.StatsObserver(stats)),
		node.WithObserver(logging.NewEventLogger(logger, noiseLogRate, noiseLogRate)),
	}

	ctx, cancel := signalContext()
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, node.WithObserver(metrics.NewNodeMetrics(reg)))
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger)
		})
	}

	if runCapture != "" {
		w, err := capture.Create(runCapture)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("Capture failed", zap.Error(err))
			}
			logger.Info("Capture written", zap.String("file", runCapture), zap.Int("records", w.Count()))
		}()
		opts = append(opts, node.WithObserver(w))
	}

	n, err := node.New(conn, nodeCfg, actuators, opts...)
	if err != nil {
		return err
	}

	logger.Info("Node started",
		zap.String("connection", connInfo),
		zap.String("id", teamlink.FormatID(nodeCfg.Roster.Self())),
		zap.String("broadcast", teamlink.FormatID(nodeCfg.Roster.Broadcast())),
		zap.String("team", string(nodeCfg.Roster.Members())),
		zap.Int("motors", n.Dispatcher().Len()),
	)

	closeOnDone(ctx, conn)
	g.Go(func() error {
		return n.Run(ctx)
	})
	if runStatsInterval > 0 {
		g.Go(func() error {
			return printStats(ctx, stats, time.Duration(runStatsInterval)*time.Second)
		})
	}

	err = g.Wait()
	fmt.Print("\n" + stats.String())

	if errors.Is(err, transport.ErrConnectionClosed) {
		logger.Warn("Connection closed")
		return nil
	}
	return err
}

func printStats(ctx context.Context, stats *teamlink.Statistics, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Print("\n" + stats.String())
		}
	}
}
