// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid team frame",
	Long: `Wait for a valid team frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for a complete
frame whose sender and receiver are both team members. Noise, commands and
frames with unknown addresses are skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking wiring and baud rate before running the node.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}
	roster, err := cfg.Roster()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}

	conn, connInfo, err := openBus(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Teamlink - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid team frame...\n\n")

	acc := teamlink.NewAccumulator(teamlink.DefaultCommandTable(), roster)
	buf := make([]byte, 128)

	frameChan := make(chan teamlink.Event, 1)
	errChan := make(chan error, 1)

	go func() {
		skipped := 0
		for {
			n, err := conn.Read(buf)
			for i := 0; i < n; i++ {
				for _, e := range acc.Feed(buf[i]) {
					if e.Kind != teamlink.EventForward {
						if e.Kind != teamlink.EventFrameStart {
							skipped++
						}
						continue
					}
					if skipped > 0 {
						fmt.Printf("(skipped %d events before a valid frame)\n", skipped)
					}
					frameChan <- e
					return
				}
			}
			if err != nil {
				errChan <- err
				return
			}
		}
	}()

	select {
	case e := <-frameChan:
		payload, sender, receiver, _ := teamlink.SplitFrame(e.Frame)
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  From: %s\n", teamlink.FormatID(sender))
		fmt.Printf("  To: %s\n", teamlink.FormatID(receiver))
		fmt.Printf("  Payload: %s\n", teamlink.FormatBytes(payload))
		fmt.Printf("  Length: %d bytes\n", e.Len)
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}
