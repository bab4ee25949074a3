// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

// EventLogger logs node events. Line noise (overflow, rejected and short
// frames) is rate limited; the number of dropped lines is attached to the
// next one that gets through.
type EventLogger struct {
	logger  *zap.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	suppressed uint64
}

// NewEventLogger creates an event logger allowing noisePerSec noise lines
// per second with the given burst.
func NewEventLogger(logger *zap.Logger, noisePerSec float64, burst int) *EventLogger {
	return &EventLogger{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(noisePerSec), burst),
	}
}

func isNoise(k teamlink.EventKind) bool {
	switch k {
	case teamlink.EventOverflow, teamlink.EventRejected, teamlink.EventShortFrame:
		return true
	}
	return false
}

func levelFor(k teamlink.EventKind) zapcore.Level {
	switch k {
	case teamlink.EventFrameStart:
		return zapcore.DebugLevel
	case teamlink.EventActuatorFailed, teamlink.EventWriteFailed:
		return zapcore.ErrorLevel
	}
	if k.IsError() {
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Observe logs e.
func (l *EventLogger) Observe(e teamlink.Event) {
	level := levelFor(e.Kind)
	if !l.logger.Core().Enabled(level) {
		return
	}

	var suppressed uint64
	if isNoise(e.Kind) {
		l.mu.Lock()
		if !l.limiter.Allow() {
			l.suppressed++
			l.mu.Unlock()
			return
		}
		suppressed = l.suppressed
		l.suppressed = 0
		l.mu.Unlock()
	}

	fields := EventFields(e)
	if suppressed > 0 {
		fields = append(fields, zap.Uint64("suppressed", suppressed))
	}
	if ce := l.logger.Check(level, teamlink.FormatEvent(e)); ce != nil {
		ce.Write(fields...)
	}
}

// Suppressed returns the number of noise lines dropped since the last one
// logged.
func (l *EventLogger) Suppressed() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suppressed
}

// EventFields returns the structured fields for e.
func EventFields(e teamlink.Event) []zap.Field {
	fields := []zap.Field{zap.String("kind", e.Kind.String())}
	switch e.Kind {
	case teamlink.EventCommand, teamlink.EventActuatorFailed:
		fields = append(fields, zap.Uint8("value", e.Value))
	case teamlink.EventForward, teamlink.EventRejected, teamlink.EventHeartbeat, teamlink.EventWriteFailed:
		fields = append(fields,
			zap.String("sender", teamlink.FormatID(e.Sender)),
			zap.String("receiver", teamlink.FormatID(e.Receiver)),
			zap.Int("len", e.Len),
		)
	case teamlink.EventShortFrame, teamlink.EventOverflow:
		fields = append(fields, zap.Int("len", e.Len))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	return fields
}
