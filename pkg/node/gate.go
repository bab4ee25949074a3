// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package node

// Gate relays validated frames back onto the bus verbatim. It never looks
// at the payload.
type Gate struct {
	out *Outbound
}

// NewGate creates a forwarding gate on out.
func NewGate(out *Outbound) *Gate {
	return &Gate{out: out}
}

// Forward writes frame in a single call.
func (g *Gate) Forward(frame []byte) error {
	_, err := g.out.Write(frame)
	return err
}
