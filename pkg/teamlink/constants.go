// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package teamlink implements the framing layer of the teamlink serial bus.
//
// Teamlink is a plain ASCII protocol shared by every node on a half-duplex
// UART. Frames are not length-prefixed and carry no checksum: a receiver
// recognizes them purely by the trailing bytes of what it has accumulated.
// This package provides the command table, team roster, frame builder and
// the byte-at-a-time accumulator that turns a raw stream into events.
package teamlink

// Frame markers
var (
	StartMarker = []byte{'A', 'Z'}
	EndMarker   = []byte{'Y', 'B'}
)

// Buffer limits
const (
	// MaxMessageLen is the largest number of bytes the accumulator holds.
	// The byte that would push it past this limit triggers an overflow reset.
	MaxMessageLen = 64

	// MinAddressedLen is the shortest buffer from which sender and receiver
	// can be read: sender, receiver and the 2-byte end marker.
	MinAddressedLen = 4
)

// Default team membership
const (
	DefaultSelf      byte = 'W'
	DefaultBroadcast byte = 'X'
)

// DefaultTeam lists the default roster members in configuration order.
var DefaultTeam = []byte{'W', 'S', 'D', 'A', 'X'}

// DefaultHeartbeatPayload is the payload carried by the node's liveness frame.
const DefaultHeartbeatPayload = "DS444"
