// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package teamlink

import (
	"bytes"
	"testing"
)

// ============================================================
// Test Helpers
// ============================================================

func newTestAccumulator() *Accumulator {
	return NewAccumulator(DefaultCommandTable(), DefaultRoster())
}

// kinds returns the event kinds, in order, for compact assertions.
func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func equalKinds(a, b []EventKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// filter returns only events of the given kind.
func filter(events []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ============================================================
// Scenario Tests
// ============================================================

func TestAccumulator_CommandToken(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZMotorSpeed40YB"))

	want := []EventKind{EventFrameStart, EventCommand}
	if !equalKinds(kinds(events), want) {
		t.Fatalf("events = %v, want %v", kinds(events), want)
	}
	if events[1].Value != 40 {
		t.Errorf("command value = %d, want 40", events[1].Value)
	}
	if a.Len() != 0 {
		t.Errorf("buffer length after command = %d, want 0", a.Len())
	}
	if a.State() != StateEmpty {
		t.Errorf("state after command = %v, want StateEmpty", a.State())
	}
}

func TestAccumulator_ForwardValidFrame(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZWXYB"))

	forwards := filter(events, EventForward)
	if len(forwards) != 1 {
		t.Fatalf("expected 1 forward, got %d (%v)", len(forwards), kinds(events))
	}
	f := forwards[0]
	if !bytes.Equal(f.Frame, []byte("AZWXYB")) {
		t.Errorf("forwarded frame = %q, want %q", f.Frame, "AZWXYB")
	}
	if f.Sender != 'W' || f.Receiver != 'X' {
		t.Errorf("sender/receiver = %c/%c, want W/X", f.Sender, f.Receiver)
	}
	if a.Len() != 0 {
		t.Errorf("buffer length after forward = %d, want 0", a.Len())
	}
}

func TestAccumulator_RejectUnknownMembers(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZQRYB"))

	if len(filter(events, EventForward)) != 0 {
		t.Fatal("frame with unknown sender/receiver must not be forwarded")
	}
	rejected := filter(events, EventRejected)
	if len(rejected) != 1 {
		t.Fatalf("expected 1 rejected event, got %v", kinds(events))
	}
	if rejected[0].Sender != 'Q' || rejected[0].Receiver != 'R' {
		t.Errorf("rejected sender/receiver = %c/%c, want Q/R", rejected[0].Sender, rejected[0].Receiver)
	}
	if a.Len() != 0 {
		t.Errorf("buffer length after reject = %d, want 0", a.Len())
	}
}

func TestAccumulator_RejectOneUnknownMember(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown sender", "AZpayloadQXYB"},
		{"unknown receiver", "AZpayloadWQYB"},
		{"markers as address", "AZYB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAccumulator()
			events := a.FeedAll([]byte(tt.input))
			if len(filter(events, EventForward)) != 0 {
				t.Errorf("%q must not be forwarded", tt.input)
			}
			if len(filter(events, EventRejected)) != 1 {
				t.Errorf("%q: expected one rejected event, got %v", tt.input, kinds(events))
			}
		})
	}
}

func TestAccumulator_OverflowAt65thByte(t *testing.T) {
	a := newTestAccumulator()
	for i := 1; i <= MaxMessageLen; i++ {
		if events := a.Feed('q'); len(events) != 0 {
			t.Fatalf("byte %d produced events %v", i, kinds(events))
		}
		if a.Len() != i {
			t.Fatalf("after byte %d, length = %d", i, a.Len())
		}
	}

	events := a.Feed('q')
	if !equalKinds(kinds(events), []EventKind{EventOverflow}) {
		t.Fatalf("65th byte events = %v, want [overflow]", kinds(events))
	}
	if events[0].Len != MaxMessageLen+1 {
		t.Errorf("overflow length = %d, want %d", events[0].Len, MaxMessageLen+1)
	}
	if a.Len() != 0 {
		t.Errorf("buffer length after overflow = %d, want 0", a.Len())
	}
}

func TestAccumulator_ShortFrame(t *testing.T) {
	tests := []string{"YB", "xYB"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			a := newTestAccumulator()
			events := a.FeedAll([]byte(input))
			if !equalKinds(kinds(events), []EventKind{EventShortFrame}) {
				t.Fatalf("events = %v, want [short_frame]", kinds(events))
			}
			if events[0].Len != len(input) {
				t.Errorf("short frame length = %d, want %d", events[0].Len, len(input))
			}
			if a.Len() != 0 {
				t.Errorf("buffer length after short frame = %d, want 0", a.Len())
			}
		})
	}
}

func TestAccumulator_SameFrameTwice(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZWXYBAZWXYB"))

	forwards := filter(events, EventForward)
	if len(forwards) != 2 {
		t.Fatalf("expected 2 forwards, got %d", len(forwards))
	}
	for i, f := range forwards {
		if !bytes.Equal(f.Frame, []byte("AZWXYB")) {
			t.Errorf("forward %d frame = %q", i, f.Frame)
		}
	}

	events = a.FeedAll([]byte("MotorSpeed20YBMotorSpeed20YB"))
	commands := filter(events, EventCommand)
	if len(commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(commands))
	}
}

// ============================================================
// Priority and Overlap Tests
// ============================================================

func TestAccumulator_CommandPreemptsFrame(t *testing.T) {
	// W and X are valid members, so the bytes also form a valid frame. The
	// command still wins because it is checked first.
	a := NewAccumulator(CommandTable{{Token: []byte("GoWXYB"), Value: 7}}, DefaultRoster())
	events := a.FeedAll([]byte("AZGoWXYB"))

	if len(filter(events, EventForward)) != 0 {
		t.Error("command token must pre-empt frame completion")
	}
	commands := filter(events, EventCommand)
	if len(commands) != 1 || commands[0].Value != 7 {
		t.Errorf("expected command 7, got %v", kinds(events))
	}
}

func TestAccumulator_TableOrderBreaksTies(t *testing.T) {
	table := CommandTable{
		{Token: []byte("BYB"), Value: 1},
		{Token: []byte("ABYB"), Value: 2},
	}
	a := NewAccumulator(table, DefaultRoster())
	events := a.FeedAll([]byte("ABYB"))

	commands := filter(events, EventCommand)
	if len(commands) != 1 {
		t.Fatalf("expected 1 command, got %v", kinds(events))
	}
	if commands[0].Value != 1 {
		t.Errorf("tie broken by length: got value %d, want first table entry 1", commands[0].Value)
	}
}

func TestAccumulator_TokenAfterGarbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value uint8
	}{
		{"partial token first", "MotorSpeed4MotorSpeed40YB", 40},
		{"inside open frame", "AZDSMotorSpeed60YB", 60},
		{"no start marker", "zzzMotorSpeed100YB", 100},
		{"zero", "MotorSpeed0YB", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAccumulator()
			events := a.FeedAll([]byte(tt.input))
			commands := filter(events, EventCommand)
			if len(commands) != 1 {
				t.Fatalf("expected 1 command, got %v", kinds(events))
			}
			if commands[0].Value != tt.value {
				t.Errorf("value = %d, want %d", commands[0].Value, tt.value)
			}
			if len(filter(events, EventForward))+len(filter(events, EventRejected)) != 0 {
				t.Error("command token must not also complete a frame")
			}
		})
	}
}

func TestAccumulator_ForwardIncludesLeadingBytes(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("noiseAZhelloSDYB"))

	forwards := filter(events, EventForward)
	if len(forwards) != 1 {
		t.Fatalf("expected 1 forward, got %v", kinds(events))
	}
	if !bytes.Equal(forwards[0].Frame, []byte("noiseAZhelloSDYB")) {
		t.Errorf("frame = %q, want whole buffer verbatim", forwards[0].Frame)
	}
}

func TestAccumulator_FrameStartIsInformational(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZAZ"))

	if len(filter(events, EventFrameStart)) != 2 {
		t.Errorf("expected 2 frame starts, got %v", kinds(events))
	}
	if a.Len() != 4 {
		t.Errorf("frame start must not clear the buffer, length = %d", a.Len())
	}
}

func TestAccumulator_InterleavedFramesMask(t *testing.T) {
	// "AZaaSDYB" and "AZbbWXYB" from two senders, interleaved on the wire.
	// The first completion carries both payloads and the tail completes as a
	// bogus frame of its own. Neither original frame is recovered.
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZaaAZbbSDYBWXYB"))

	forwards := filter(events, EventForward)
	if len(forwards) != 2 {
		t.Fatalf("expected 2 forwards, got %v", kinds(events))
	}
	if !bytes.Equal(forwards[0].Frame, []byte("AZaaAZbbSDYB")) {
		t.Errorf("first frame = %q", forwards[0].Frame)
	}
	if !bytes.Equal(forwards[1].Frame, []byte("WXYB")) {
		t.Errorf("second frame = %q", forwards[1].Frame)
	}
}

func TestAccumulator_OverflowLosesFrame(t *testing.T) {
	a := newTestAccumulator()
	long := append([]byte("AZ"), bytes.Repeat([]byte("1"), MaxMessageLen)...)
	events := a.FeedAll(long)
	if len(filter(events, EventOverflow)) != 1 {
		t.Fatalf("expected overflow, got %v", kinds(events))
	}

	// The tail of the frame arrives after the reset and is too short to
	// validate against the original sender.
	events = a.FeedAll([]byte("YB"))
	if !equalKinds(kinds(events), []EventKind{EventShortFrame}) {
		t.Errorf("events after overflow = %v, want [short_frame]", kinds(events))
	}
}

func TestAccumulator_ResetAndBytes(t *testing.T) {
	a := newTestAccumulator()
	a.FeedAll([]byte("AZDS"))

	got := a.Bytes()
	if !bytes.Equal(got, []byte("AZDS")) {
		t.Errorf("Bytes() = %q, want AZDS", got)
	}
	got[0] = 'x'
	if a.Bytes()[0] != 'A' {
		t.Error("Bytes() must return a copy")
	}

	a.Reset()
	if a.Len() != 0 || a.State() != StateEmpty {
		t.Errorf("after Reset: len=%d state=%v", a.Len(), a.State())
	}
}

func TestAccumulator_ForwardFrameIsCopy(t *testing.T) {
	a := newTestAccumulator()
	events := a.FeedAll([]byte("AZWXYB"))
	frame := filter(events, EventForward)[0].Frame

	a.FeedAll([]byte("ZZZZZZ"))
	if !bytes.Equal(frame, []byte("AZWXYB")) {
		t.Errorf("forwarded frame changed after further input: %q", frame)
	}
}
