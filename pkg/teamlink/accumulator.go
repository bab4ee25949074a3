// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import (
	"bytes"
	"time"
)

// State is the coarse accumulator state.
type State int

const (
	StateEmpty State = iota
	StateAccumulating
)

// Accumulator recognizes frames and command tokens in a byte stream.
//
// Every byte is appended to a bounded buffer and the buffer's suffix is then
// checked, in order, against the start marker, the command table, the end
// marker and the length limit. A command, a completed frame or an overflow
// each clears the buffer, so at most one of them fires per byte.
//
// The accumulator keeps no state beyond its buffer. Two frames interleaved
// on the wire by different senders cannot be separated: the later one masks
// or corrupts the earlier. This is a property of the protocol.
//
// An Accumulator is not safe for concurrent use; give it to one goroutine.
type Accumulator struct {
	buf    [MaxMessageLen + 1]byte
	n      int
	table  CommandTable
	roster *Roster
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator(table CommandTable, roster *Roster) *Accumulator {
	return &Accumulator{table: table, roster: roster}
}

// Reset clears the buffer.
func (a *Accumulator) Reset() {
	a.n = 0
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	return a.n
}

// Bytes returns a copy of the buffered bytes.
func (a *Accumulator) Bytes() []byte {
	out := make([]byte, a.n)
	copy(out, a.buf[:a.n])
	return out
}

// State returns StateEmpty when nothing is buffered.
func (a *Accumulator) State() State {
	if a.n == 0 {
		return StateEmpty
	}
	return StateAccumulating
}

// Feed processes one byte and returns the events it triggered, or nil.
func (a *Accumulator) Feed(b byte) []Event {
	a.buf[a.n] = b
	a.n++
	cur := a.buf[:a.n]
	now := time.Now()

	var events []Event
	if bytes.HasSuffix(cur, StartMarker) {
		events = append(events, Event{Kind: EventFrameStart, Len: a.n, Timestamp: now})
	}

	if cmd, ok := a.table.Match(cur); ok {
		events = append(events, Event{Kind: EventCommand, Value: cmd.Value, Len: a.n, Timestamp: now})
		a.Reset()
		return events
	}

	if bytes.HasSuffix(cur, EndMarker) {
		events = append(events, a.completeFrame(cur, now))
		a.Reset()
		return events
	}

	if a.n > MaxMessageLen {
		events = append(events, Event{Kind: EventOverflow, Len: a.n, Timestamp: now})
		a.Reset()
	}
	return events
}

// FeedAll feeds every byte of p and returns all resulting events in order.
func (a *Accumulator) FeedAll(p []byte) []Event {
	var events []Event
	for _, b := range p {
		events = append(events, a.Feed(b)...)
	}
	return events
}

func (a *Accumulator) completeFrame(cur []byte, now time.Time) Event {
	if len(cur) < MinAddressedLen {
		return Event{Kind: EventShortFrame, Len: len(cur), Timestamp: now}
	}

	frame := make([]byte, len(cur))
	copy(frame, cur)
	sender, receiver := cur[len(cur)-4], cur[len(cur)-3]

	kind := EventRejected
	if a.roster.Contains(sender) && a.roster.Contains(receiver) {
		kind = EventForward
	}
	return Event{
		Kind:      kind,
		Frame:     frame,
		Sender:    sender,
		Receiver:  receiver,
		Len:       len(cur),
		Timestamp: now,
	}
}
