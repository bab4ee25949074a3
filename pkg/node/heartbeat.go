// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package node

import (
	"context"
	"time"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

// Heartbeat periodically writes the node's liveness frame. On the wire it
// looks exactly like a frame relayed by this node.
type Heartbeat struct {
	out      *Outbound
	frame    []byte
	period   time.Duration
	observer Observer
}

// NewHeartbeat builds the liveness frame once: the payload, sent from the
// roster's own id to its broadcast id.
func NewHeartbeat(out *Outbound, roster *teamlink.Roster, payload []byte, period time.Duration, observer Observer) (*Heartbeat, error) {
	frame, err := teamlink.HeartbeatFrame(roster, payload)
	if err != nil {
		return nil, err
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &Heartbeat{
		out:      out,
		frame:    frame,
		period:   period,
		observer: observer,
	}, nil
}

// Frame returns the bytes written on every beat.
func (h *Heartbeat) Frame() []byte {
	return h.frame
}

// Beat writes one liveness frame and reports it.
func (h *Heartbeat) Beat() error {
	now := time.Now()
	if _, err := h.out.Write(h.frame); err != nil {
		h.observer.Observe(teamlink.Event{Kind: teamlink.EventWriteFailed, Err: err, Timestamp: now})
		return err
	}

	frame := make([]byte, len(h.frame))
	copy(frame, h.frame)
	_, sender, receiver, _ := teamlink.SplitFrame(frame)
	h.observer.Observe(teamlink.Event{
		Kind:      teamlink.EventHeartbeat,
		Frame:     frame,
		Sender:    sender,
		Receiver:  receiver,
		Len:       len(frame),
		Timestamp: now,
	})
	return nil
}

// Run beats once per period until ctx is done. The first beat goes out one
// full period after Run starts. Write failures are reported and the loop
// carries on.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.Beat()
		}
	}
}
