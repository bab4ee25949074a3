// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import (
	"bytes"
	"fmt"
)

// BuildFrame assembles an addressed frame:
//
//	AZ · payload · sender · receiver · YB
//
// The end marker may appear only at the end, and the frame must fit in a
// receiver's accumulator.
func BuildFrame(payload []byte, sender, receiver byte) ([]byte, error) {
	if bytes.Contains(payload, EndMarker) {
		return nil, fmt.Errorf("payload %q contains the end marker", payload)
	}
	size := len(StartMarker) + len(payload) + 2 + len(EndMarker)
	if size > MaxMessageLen {
		return nil, fmt.Errorf("frame too large: %d bytes (max %d)", size, MaxMessageLen)
	}

	frame := make([]byte, 0, size)
	frame = append(frame, StartMarker...)
	frame = append(frame, payload...)
	frame = append(frame, sender, receiver)
	frame = append(frame, EndMarker...)

	// A payload ending in Y with sender B, or similar, would end the frame early
	if i := bytes.Index(frame, EndMarker); i != len(frame)-len(EndMarker) {
		return nil, fmt.Errorf("end marker at offset %d inside frame %q", i, frame)
	}
	return frame, nil
}

// MustBuildFrame is BuildFrame for literals known to be valid.
func MustBuildFrame(payload []byte, sender, receiver byte) []byte {
	frame, err := BuildFrame(payload, sender, receiver)
	if err != nil {
		panic(fmt.Sprintf("teamlink: %v", err))
	}
	return frame
}

// HeartbeatFrame returns the liveness frame for a roster: sender is the node
// itself, receiver is the broadcast identifier.
func HeartbeatFrame(r *Roster, payload []byte) ([]byte, error) {
	return BuildFrame(payload, r.Self(), r.Broadcast())
}

// SplitFrame returns the payload, sender and receiver of a completed frame.
// A leading start marker is stripped from the payload; anything buffered
// before it is kept.
func SplitFrame(frame []byte) (payload []byte, sender, receiver byte, ok bool) {
	if len(frame) < MinAddressedLen || !bytes.HasSuffix(frame, EndMarker) {
		return nil, 0, 0, false
	}
	end := len(frame) - len(EndMarker)
	sender, receiver = frame[end-2], frame[end-1]
	payload = frame[:end-2]
	payload = bytes.TrimPrefix(payload, StartMarker)
	return payload, sender, receiver, true
}
