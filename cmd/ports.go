// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/teamlink/pkg/transport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports that could carry the bus",
	Long: `List the serial ports present on this machine, for use with --port or
the motors section of the config file.

Exit codes:
  0 - At least one port found
  1 - No ports found
  2 - Port enumeration failed`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := transport.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Port enumeration failed: %v\n", err)
		os.Exit(2)
	}
	if len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "No serial ports found")
		os.Exit(1)
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}
