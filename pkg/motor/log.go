// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motor

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogActuator only logs requests. It stands in for real drivers in dry runs
// and keeps the last value it was sent.
type LogActuator struct {
	logger *zap.Logger

	mu       sync.Mutex
	last     Request
	requests int
}

// NewLogActuator creates a log-only actuator.
func NewLogActuator(logger *zap.Logger) *LogActuator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogActuator{logger: logger}
}

// Actuate records and logs the request.
func (l *LogActuator) Actuate(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	l.last = req
	l.requests++
	l.mu.Unlock()

	l.logger.Info("Sent motor request",
		zap.Int("motor", req.Selector),
		zap.Uint8("cmd", req.Command),
		zap.Uint8("value", req.Value),
	)
	return nil
}

// Last returns the most recent request and how many have been seen.
func (l *LogActuator) Last() (Request, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.requests
}
