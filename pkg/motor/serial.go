// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// WriterActuator writes requests to a byte channel such as a serial port.
type WriterActuator struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterActuator wraps w.
func NewWriterActuator(w io.Writer) *WriterActuator {
	return &WriterActuator{w: w}
}

// Actuate writes the two request bytes in a single call.
func (a *WriterActuator) Actuate(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.w.Write(req.Bytes())
	if err != nil {
		return err
	}
	if n != 2 {
		return io.ErrShortWrite
	}
	return nil
}

// SerialActuator is a WriterActuator that owns its serial port.
type SerialActuator struct {
	*WriterActuator
	port serial.Port
	name string
}

// OpenSerial opens a motor driver attached to a serial port.
func OpenSerial(portName string, baudRate int) (*SerialActuator, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open motor port %s: %w", portName, err)
	}

	return &SerialActuator{
		WriterActuator: NewWriterActuator(port),
		port:           port,
		name:           portName,
	}, nil
}

// Name returns the port the driver is attached to.
func (s *SerialActuator) Name() string {
	return s.name
}

// Close releases the serial port.
func (s *SerialActuator) Close() error {
	return s.port.Close()
}
