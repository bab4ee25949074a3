// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import "fmt"

// Roster is the fixed set of single-byte identifiers allowed as sender or
// receiver of a forwarded frame.
type Roster struct {
	self      byte
	broadcast byte
	members   [256]bool
	order     []byte
}

// NewRoster builds a roster. Both self and broadcast must be members.
func NewRoster(self, broadcast byte, members []byte) (*Roster, error) {
	r := &Roster{self: self, broadcast: broadcast}
	for _, m := range members {
		if r.members[m] {
			continue
		}
		r.members[m] = true
		r.order = append(r.order, m)
	}
	if !r.members[self] {
		return nil, fmt.Errorf("node id %q is not a team member", self)
	}
	if !r.members[broadcast] {
		return nil, fmt.Errorf("broadcast id %q is not a team member", broadcast)
	}
	if self == broadcast {
		return nil, fmt.Errorf("node id and broadcast id are both %q", self)
	}
	return r, nil
}

// DefaultRoster returns the stock five-member team.
func DefaultRoster() *Roster {
	r, err := NewRoster(DefaultSelf, DefaultBroadcast, DefaultTeam)
	if err != nil {
		panic(fmt.Sprintf("teamlink: default roster: %v", err))
	}
	return r
}

// Contains reports whether id is a team member.
func (r *Roster) Contains(id byte) bool {
	return r.members[id]
}

// Self returns this node's identifier.
func (r *Roster) Self() byte {
	return r.self
}

// Broadcast returns the reserved broadcast identifier.
func (r *Roster) Broadcast() byte {
	return r.broadcast
}

// Members returns the roster in configuration order.
func (r *Roster) Members() []byte {
	out := make([]byte, len(r.order))
	copy(out, r.order)
	return out
}
