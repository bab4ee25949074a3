// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import "time"

// EventKind identifies what happened on the bus or in the node.
type EventKind int

const (
	// EventFrameStart is informational: the buffer now ends with the start
	// marker. It does not gate any later matching.
	EventFrameStart EventKind = iota
	// EventCommand carries a recognized command token and its value.
	EventCommand
	// EventForward carries a completed frame whose sender and receiver are
	// both team members.
	EventForward
	// EventRejected is a completed frame with an unknown sender or receiver.
	EventRejected
	// EventShortFrame is an end marker seen with fewer than MinAddressedLen
	// bytes buffered.
	EventShortFrame
	// EventOverflow means the buffer grew past MaxMessageLen and was dropped.
	EventOverflow

	// Node-level events, produced outside the accumulator.

	// EventHeartbeat is emitted after the node writes its liveness frame.
	EventHeartbeat
	// EventActuatorFailed reports a motor write that did not complete.
	EventActuatorFailed
	// EventWriteFailed reports an outbound write (forward or heartbeat) error.
	EventWriteFailed
)

var eventKindNames = map[EventKind]string{
	EventFrameStart:     "frame_start",
	EventCommand:        "command",
	EventForward:        "forward",
	EventRejected:       "rejected",
	EventShortFrame:     "short_frame",
	EventOverflow:       "overflow",
	EventHeartbeat:      "heartbeat",
	EventActuatorFailed: "actuator_failed",
	EventWriteFailed:    "write_failed",
}

// String returns the snake_case name used in logs and metric labels.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsError reports whether the event belongs to the error taxonomy.
func (k EventKind) IsError() bool {
	switch k {
	case EventRejected, EventShortFrame, EventOverflow, EventActuatorFailed, EventWriteFailed:
		return true
	}
	return false
}

// Event is a single observation. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Value     uint8  // EventCommand
	Frame     []byte // EventForward, EventRejected, EventHeartbeat: a copy of the frame bytes
	Sender    byte   // EventForward, EventRejected, EventHeartbeat
	Receiver  byte   // EventForward, EventRejected, EventHeartbeat
	Len       int    // buffer length when the event fired
	Err       error  // EventActuatorFailed, EventWriteFailed
	Timestamp time.Time
}
