// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package node

import (
	"io"
	"sync"
)

// Outbound is the write side of the bus, shared by the forwarding gate, the
// heartbeat and anything injecting bytes. Each Write reaches the transport
// whole, never interleaved with another.
type Outbound struct {
	mu sync.Mutex
	w  io.Writer
}

// NewOutbound wraps the transport's writer.
func NewOutbound(w io.Writer) *Outbound {
	return &Outbound{w: w}
}

// Write performs exactly one write of p. There is no retry and no ack.
func (o *Outbound) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n, err := o.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}
