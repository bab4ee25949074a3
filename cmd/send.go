// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Thermoquad/teamlink/pkg/node"
	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

var (
	sendSpeed   int
	sendPayload string
	sendFrom    string
	sendTo      string
	sendRaw     string
	sendCount   int
	sendRate    float64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Write a command, frame or raw bytes onto the bus",
	Long: `Write bytes onto the bus for testing other nodes.

Exactly one of:
  --speed N              MotorSpeed command token (N = 0, 20, 40, 60, 80, 100)
  --payload P            frame AZ P <from> <to> YB (defaults: this node to broadcast)
  --raw TEXT             raw bytes; Go escapes such as \x00 are accepted

The bytes are written --count times, at most --rate times per second.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendSpeed, "speed", -1, "Motor speed percent to command")
	sendCmd.Flags().StringVar(&sendPayload, "payload", "", "Frame payload")
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "Frame sender id (default: node.id)")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Frame receiver id (default: node.broadcast)")
	sendCmd.Flags().StringVar(&sendRaw, "raw", "", "Raw text to write")
	sendCmd.Flags().IntVarP(&sendCount, "count", "n", 1, "Number of times to write")
	sendCmd.Flags().Float64Var(&sendRate, "rate", 1, "Maximum writes per second")
}

// sendRequest describes what to write; exactly one form must be set.
type sendRequest struct {
	speed   int
	payload string
	from    string
	to      string
	raw     string
}

func (r sendRequest) bytes(roster *teamlink.Roster) ([]byte, error) {
	set := 0
	if r.speed >= 0 {
		set++
	}
	if r.payload != "" {
		set++
	}
	if r.raw != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of --speed, --payload or --raw is required")
	}

	switch {
	case r.speed >= 0:
		if r.speed > 255 {
			return nil, fmt.Errorf("no command for speed %d", r.speed)
		}
		c, ok := teamlink.DefaultCommandTable().Lookup(uint8(r.speed))
		if !ok {
			return nil, fmt.Errorf("no command for speed %d", r.speed)
		}
		return c.Token, nil

	case r.payload != "":
		from, err := singleID(r.from, roster.Self())
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		to, err := singleID(r.to, roster.Broadcast())
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		return teamlink.BuildFrame([]byte(r.payload), from, to)

	default:
		return unescape(r.raw)
	}
}

func singleID(s string, def byte) (byte, error) {
	if s == "" {
		return def, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("id must be a single byte, got %q", s)
	}
	return s[0], nil
}

// unescape interprets Go string escapes (\x41, \n, ...) in s.
func unescape(s string) ([]byte, error) {
	out, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return nil, fmt.Errorf("bad escape in %q: %w", s, err)
	}
	return []byte(out), nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	roster, err := cfg.Roster()
	if err != nil {
		return err
	}
	req := sendRequest{speed: sendSpeed, payload: sendPayload, from: sendFrom, to: sendTo, raw: sendRaw}
	data, err := req.bytes(roster)
	if err != nil {
		return err
	}
	if sendCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	if sendRate <= 0 {
		return fmt.Errorf("--rate must be positive")
	}

	conn, connInfo, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	out := node.NewOutbound(conn)
	limiter := rate.NewLimiter(rate.Limit(sendRate), 1)

	logger.Info("Sending",
		zap.String("connection", connInfo),
		zap.String("bytes", teamlink.FormatBytes(data)),
		zap.Int("count", sendCount),
	)
	for i := 0; i < sendCount; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("write %d/%d: %w", i+1, sendCount, err)
		}
		fmt.Printf("Sent %d/%d: %s\n", i+1, sendCount, teamlink.FormatBytes(data))
	}
	return nil
}
