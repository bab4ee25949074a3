// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package node

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
	"github.com/Thermoquad/teamlink/pkg/transport"
)

// Receiver pulls bytes off the bus and drives the accumulator one byte at a
// time, acting on the events it produces.
//
// The accumulator is owned by the Receiver's goroutine; nothing else may
// touch it while Run is active.
type Receiver struct {
	r            io.Reader
	acc          *teamlink.Accumulator
	dispatcher   *Dispatcher
	gate         *Gate
	observer     Observer
	pollInterval time.Duration
	logger       *zap.Logger
}

// Accumulator exposes the receiver's accumulator for inspection when the
// receiver is not running.
func (r *Receiver) Accumulator() *teamlink.Accumulator {
	return r.acc
}

// Run reads until ctx is done or the connection closes. A closed connection
// is reported as transport.ErrConnectionClosed; cancellation returns nil.
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, 128)
	ro, _ := r.observer.(ReadObserver)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.r.Read(buf)
		if n > 0 {
			if ro != nil {
				ro.ObserveRead(buf[:n])
			}
			for i := 0; i < n; i++ {
				r.HandleByte(ctx, buf[i])
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, transport.ErrConnectionClosed) {
				return transport.ErrConnectionClosed
			}
			r.logger.Warn("Read error", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.pollInterval):
			}
		}
	}
}

// HandleByte feeds one byte and performs the resulting dispatches and
// forwards. Every event, including any failure while acting on it, goes to
// the observer. Failures never stop the receiver.
func (r *Receiver) HandleByte(ctx context.Context, b byte) []teamlink.Event {
	events := r.acc.Feed(b)
	for _, e := range events {
		r.observer.Observe(e)

		switch e.Kind {
		case teamlink.EventCommand:
			if err := r.dispatcher.Apply(ctx, e.Value); err != nil {
				r.observer.Observe(teamlink.Event{
					Kind:      teamlink.EventActuatorFailed,
					Value:     e.Value,
					Err:       err,
					Timestamp: time.Now(),
				})
			}

		case teamlink.EventForward:
			if err := r.gate.Forward(e.Frame); err != nil {
				r.observer.Observe(teamlink.Event{
					Kind:      teamlink.EventWriteFailed,
					Frame:     e.Frame,
					Sender:    e.Sender,
					Receiver:  e.Receiver,
					Len:       e.Len,
					Err:       err,
					Timestamp: time.Now(),
				})
			}
		}
	}
	return events
}
