// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialConn wraps a serial port
type SerialConn struct {
	port serial.Port
}

// OpenSerial opens the bus UART at 8N1. With a non-zero readTimeout, Read
// returns (0, nil) when the line stays idle that long.
func OpenSerial(portName string, baudRate int, readTimeout time.Duration) (*SerialConn, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
		}
	}

	return &SerialConn{port: port}, nil
}

func (s *SerialConn) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConn) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConn) Close() error {
	return s.port.Close()
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
