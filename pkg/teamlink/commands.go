// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import (
	"bytes"
	"fmt"
)

// Command is a fixed token that directly sets the local motor speed.
type Command struct {
	Token []byte
	Value uint8 // percent, 0-100
}

// CommandTable is an ordered list of command tokens. Matching walks the table
// in order and the first token that is a suffix of the buffer wins.
type CommandTable []Command

// MotorSpeedToken returns the wire token for a motor speed percentage.
func MotorSpeedToken(percent uint8) []byte {
	return []byte(fmt.Sprintf("MotorSpeed%dYB", percent))
}

// DefaultCommandTable returns the stock MotorSpeed table (0, 20 ... 100).
func DefaultCommandTable() CommandTable {
	speeds := []uint8{0, 20, 40, 60, 80, 100}
	table := make(CommandTable, 0, len(speeds))
	for _, s := range speeds {
		table = append(table, Command{Token: MotorSpeedToken(s), Value: s})
	}
	return table
}

// Match returns the first command whose token ends buf.
func (t CommandTable) Match(buf []byte) (Command, bool) {
	for _, c := range t {
		if bytes.HasSuffix(buf, c.Token) {
			return c, true
		}
	}
	return Command{}, false
}

// Lookup returns the command carrying the given value.
func (t CommandTable) Lookup(value uint8) (Command, bool) {
	for _, c := range t {
		if c.Value == value {
			return c, true
		}
	}
	return Command{}, false
}

// Validate checks that every token fits in the accumulator and that no value
// exceeds 100 percent.
func (t CommandTable) Validate() error {
	for i, c := range t {
		if len(c.Token) == 0 {
			return fmt.Errorf("command %d: empty token", i)
		}
		if len(c.Token) > MaxMessageLen {
			return fmt.Errorf("command %q: token longer than %d bytes", c.Token, MaxMessageLen)
		}
		if c.Value > 100 {
			return fmt.Errorf("command %q: value %d out of range (max 100)", c.Token, c.Value)
		}
	}
	return nil
}
