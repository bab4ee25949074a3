// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package motor drives the node's motor-driver peripherals.
//
// Each driver sits on its own dedicated channel and accepts a two-byte
// request: a command code followed by a value.
package motor

import (
	"context"
	"fmt"
)

// Command codes understood by the motor drivers.
const (
	CmdSetSpeed byte = 0x01
)

// Request is a single actuation write.
type Request struct {
	Selector int // 1-based actuator position
	Command  byte
	Value    uint8 // percent, 0-100
}

// Bytes returns the wire form of the request.
func (r Request) Bytes() []byte {
	return []byte{r.Command, r.Value}
}

// Actuator performs synchronous actuation requests.
type Actuator interface {
	Actuate(ctx context.Context, req Request) error
}

// ActuatorError is returned when an actuator write fails.
type ActuatorError struct {
	Selector int
	Request  Request
	Err      error
}

func (e *ActuatorError) Error() string {
	return fmt.Sprintf("motor %d: CMD 0x%02X VALUE %d: %v", e.Selector, e.Request.Command, e.Request.Value, e.Err)
}

func (e *ActuatorError) Unwrap() error {
	return e.Err
}
