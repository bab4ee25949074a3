// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package node

import (
	"context"
	"errors"

	"github.com/Thermoquad/teamlink/pkg/motor"
)

// Dispatcher fans a speed command out to every actuator.
type Dispatcher struct {
	actuators []motor.Actuator
}

// NewDispatcher creates a dispatcher. Actuators are driven in the order
// given; selector 1 is the first.
func NewDispatcher(actuators ...motor.Actuator) *Dispatcher {
	return &Dispatcher{actuators: actuators}
}

// Apply sets every actuator to value, one after another. A failing actuator
// does not stop the ones after it; all failures are returned joined, each
// as a *motor.ActuatorError.
func (d *Dispatcher) Apply(ctx context.Context, value uint8) error {
	var errs []error
	for i, a := range d.actuators {
		req := motor.Request{Selector: i + 1, Command: motor.CmdSetSpeed, Value: value}
		if err := a.Actuate(ctx, req); err != nil {
			errs = append(errs, &motor.ActuatorError{Selector: req.Selector, Request: req, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of actuators.
func (d *Dispatcher) Len() int {
	return len(d.actuators)
}
