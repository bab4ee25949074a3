// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/teamlink/pkg/capture"
	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

var replayShowStarts bool

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Analyze a capture recorded with run --capture",
	Long: `Feed a capture file through a fresh accumulator and print every event
with the time its bytes were read, followed by statistics.

Nothing is written to the bus and no motors are driven. The team roster comes
from the configuration, so a capture can be re-checked against a different
roster.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayShowStarts, "show-starts", false, "Also print start-marker events")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	roster, err := cfg.Roster()
	if err != nil {
		return err
	}

	r, err := capture.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	acc := teamlink.NewAccumulator(teamlink.DefaultCommandTable(), roster)
	stats := teamlink.NewStatistics()
	out := cmd.OutOrStdout()

	err = capture.Replay(r, acc, func(rec capture.Record, events []teamlink.Event) {
		stats.AddBytes(len(rec.Data))
		for _, e := range events {
			stats.Update(e)
			if e.Kind == teamlink.EventFrameStart && !replayShowStarts {
				continue
			}
			e.Timestamp = rec.Time()
			fmt.Fprint(out, teamlink.FormatEventLine(e))
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprint(out, "\n"+stats.String())
	return nil
}
