// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Thermoquad/teamlink/pkg/config"
	"github.com/Thermoquad/teamlink/pkg/motor"
	"github.com/Thermoquad/teamlink/pkg/transport"
)

// openBus opens the bus connection described by cfg.
func openBus(cfg *config.Config) (transport.Conn, string, error) {
	return transport.Open(cfg.TransportOptions())
}

// closeOnDone closes conn when ctx ends, which unblocks any pending Read.
func closeOnDone(ctx context.Context, conn io.Closer) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openActuators opens one driver per configured motor, in selector order.
// With dryRun, or no motors configured, requests are only logged.
func openActuators(cfg *config.Config, logger *zap.Logger, dryRun bool) ([]motor.Actuator, func() error, error) {
	if dryRun || len(cfg.Motors) == 0 {
		logger.Info("Motors in dry-run mode, requests are logged only")
		return []motor.Actuator{
			motor.NewLogActuator(logger.Named("motor1")),
			motor.NewLogActuator(logger.Named("motor2")),
		}, func() error { return nil }, nil
	}

	var (
		actuators []motor.Actuator
		opened    []*motor.SerialActuator
	)
	closeAll := func() error {
		var errs []error
		for _, a := range opened {
			errs = append(errs, a.Close())
		}
		return errors.Join(errs...)
	}

	for i, m := range cfg.Motors {
		a, err := motor.OpenSerial(m.Port, m.Baud)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("motor %d (%s): %w", i+1, m.Name, err)
		}
		logger.Info("Motor driver opened",
			zap.Int("motor", i+1),
			zap.String("name", m.Name),
			zap.String("port", a.Name()),
		)
		opened = append(opened, a)
		actuators = append(actuators, a)
	}
	return actuators, closeAll, nil
}
