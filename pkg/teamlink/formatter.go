// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import (
	"fmt"
	"strings"
)

// FormatID renders a single-byte identifier, printable or hex.
func FormatID(id byte) string {
	if id >= 0x21 && id <= 0x7E {
		return string(id)
	}
	return fmt.Sprintf("0x%02X", id)
}

// FormatBytes renders frame bytes as text, escaping anything unprintable.
func FormatBytes(p []byte) string {
	var sb strings.Builder
	for _, b := range p {
		if b >= 0x20 && b <= 0x7E {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "\\x%02X", b)
		}
	}
	return sb.String()
}

// FormatEvent returns a one-line human-readable description of an event.
func FormatEvent(e Event) string {
	switch e.Kind {
	case EventFrameStart:
		return "Msg Start"
	case EventCommand:
		return fmt.Sprintf("Setting Motor Speed: %d%%", e.Value)
	case EventForward:
		return fmt.Sprintf("Forwarding to %s (from %s): %s", FormatID(e.Receiver), FormatID(e.Sender), FormatBytes(e.Frame))
	case EventRejected:
		return fmt.Sprintf("Invalid sender/receiver %s/%s, discarding message", FormatID(e.Sender), FormatID(e.Receiver))
	case EventShortFrame:
		return fmt.Sprintf("Message Received with %d bytes, too short to address", e.Len)
	case EventOverflow:
		return "Message Too Long, Resetting"
	case EventHeartbeat:
		return fmt.Sprintf("Sending Heartbeat: %s", FormatBytes(e.Frame))
	case EventActuatorFailed:
		return fmt.Sprintf("Motor write failed: %v", e.Err)
	case EventWriteFailed:
		return fmt.Sprintf("Bus write failed: %v", e.Err)
	default:
		return fmt.Sprintf("UNKNOWN event %d", int(e.Kind))
	}
}

// FormatEventLine prefixes FormatEvent with the event's timestamp.
func FormatEventLine(e Event) string {
	return fmt.Sprintf("[%s] %s\n", e.Timestamp.Format("15:04:05.000"), FormatEvent(e))
}
