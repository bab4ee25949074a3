// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Teamlink - a node on the shared team serial bus.
//
// Relays frames between team members, drives the local motor drivers on
// MotorSpeed commands and announces itself with a periodic heartbeat.

package main

import (
	"os"

	"github.com/Thermoquad/teamlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
