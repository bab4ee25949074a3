// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import (
	"fmt"
	"sync"
	"time"
)

// Counters is a point-in-time copy of Statistics.
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	BytesReceived  uint64
	FramesStarted  uint64
	Commands       uint64
	Forwarded      uint64
	Rejected       uint64
	ShortFrames    uint64
	Overflows      uint64
	Heartbeats     uint64
	ActuatorErrors uint64
	WriteErrors    uint64

	LastMotorSpeed uint8
	HasMotorSpeed  bool

	// Rates (calculated)
	FrameRate float64 // completed frames/sec
	ErrorRate float64 // errors/sec
}

// Completed returns the number of inbound units that reached a terminal
// outcome other than overflow.
func (c Counters) Completed() uint64 {
	return c.Commands + c.Forwarded + c.Rejected + c.ShortFrames
}

// Errors returns the total of all error-kind events.
func (c Counters) Errors() uint64 {
	return c.Rejected + c.ShortFrames + c.Overflows + c.ActuatorErrors + c.WriteErrors
}

// String returns a formatted statistics summary
func (c Counters) String() string {
	elapsed := time.Since(c.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Bytes Received:  %8d\n", c.BytesReceived)
	result += fmt.Sprintf("Commands:        %8d\n", c.Commands)
	result += fmt.Sprintf("Forwarded:       %8d\n", c.Forwarded)
	result += fmt.Sprintf("Heartbeats:      %8d\n", c.Heartbeats)

	if c.Rejected > 0 {
		result += fmt.Sprintf("Rejected:        %8d\n", c.Rejected)
	}
	if c.ShortFrames > 0 {
		result += fmt.Sprintf("Short Frames:    %8d\n", c.ShortFrames)
	}
	if c.Overflows > 0 {
		result += fmt.Sprintf("Overflows:       %8d\n", c.Overflows)
	}
	if c.ActuatorErrors > 0 {
		result += fmt.Sprintf("Motor Errors:    %8d\n", c.ActuatorErrors)
	}
	if c.WriteErrors > 0 {
		result += fmt.Sprintf("Write Errors:    %8d\n", c.WriteErrors)
	}
	if c.HasMotorSpeed {
		result += fmt.Sprintf("Motor Speed:     %7d%%\n", c.LastMotorSpeed)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", c.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", c.ErrorRate)
	result += "================================\n"

	return result
}

// Statistics tracks event counts and rates. The receiver and heartbeat both
// report into it, so access is serialized.
type Statistics struct {
	mu sync.Mutex
	c  Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.Reset()
	return s
}

// AddBytes counts raw bytes read from the bus.
func (s *Statistics) AddBytes(n int) {
	s.mu.Lock()
	s.c.BytesReceived += uint64(n)
	s.mu.Unlock()
}

// Update counts one event.
func (s *Statistics) Update(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case EventFrameStart:
		s.c.FramesStarted++
	case EventCommand:
		s.c.Commands++
		s.c.LastMotorSpeed = e.Value
		s.c.HasMotorSpeed = true
	case EventForward:
		s.c.Forwarded++
	case EventRejected:
		s.c.Rejected++
	case EventShortFrame:
		s.c.ShortFrames++
	case EventOverflow:
		s.c.Overflows++
	case EventHeartbeat:
		s.c.Heartbeats++
	case EventActuatorFailed:
		s.c.ActuatorErrors++
	case EventWriteFailed:
		s.c.WriteErrors++
	}
	s.c.LastUpdateTime = time.Now()
}

// Snapshot returns a copy of the counters with rates calculated.
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Since(s.c.StartTime).Seconds()
	if elapsed > 0 {
		s.c.FrameRate = float64(s.c.Completed()) / elapsed
		s.c.ErrorRate = float64(s.c.Errors()) / elapsed
	}
	return s.c
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	return s.Snapshot().String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.c = Counters{StartTime: now, LastUpdateTime: now}
}
