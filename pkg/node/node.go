// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package node runs a teamlink bus node: a receiver that frames inbound
// bytes, dispatches motor commands and relays team traffic, and a heartbeat
// that announces the node. The two tasks share only the outbound channel
// and the actuators.
package node

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Thermoquad/teamlink/pkg/motor"
	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

// Config holds the protocol-level node settings.
type Config struct {
	Roster           *teamlink.Roster
	Commands         teamlink.CommandTable
	HeartbeatPayload []byte
	HeartbeatPeriod  time.Duration
	HeartbeatEnabled bool
	PollInterval     time.Duration
}

// DefaultConfig returns the stock node: default roster and command table,
// a 10 second heartbeat and a 10ms idle poll.
func DefaultConfig() Config {
	return Config{
		Roster:           teamlink.DefaultRoster(),
		Commands:         teamlink.DefaultCommandTable(),
		HeartbeatPayload: []byte(teamlink.DefaultHeartbeatPayload),
		HeartbeatPeriod:  10 * time.Second,
		HeartbeatEnabled: true,
		PollInterval:     10 * time.Millisecond,
	}
}

// Option customizes a Node.
type Option func(*Node)

// WithLogger sets the logger for transport-level problems.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Node) {
		n.logger = logger
	}
}

// WithObserver adds an event observer.
func WithObserver(o Observer) Option {
	return func(n *Node) {
		n.observers = append(n.observers, o)
	}
}

// Node wires the receiver, dispatcher, gate and heartbeat to one bus.
type Node struct {
	cfg        Config
	out        *Outbound
	dispatcher *Dispatcher
	gate       *Gate
	receiver   *Receiver
	heartbeat  *Heartbeat
	observers  Observers
	logger     *zap.Logger
}

// New builds a node on conn. Actuators are driven in the order given.
func New(conn io.ReadWriter, cfg Config, actuators []motor.Actuator, opts ...Option) (*Node, error) {
	if cfg.Roster == nil {
		return nil, fmt.Errorf("node: roster is required")
	}
	if err := cfg.Commands.Validate(); err != nil {
		return nil, fmt.Errorf("node: command table: %w", err)
	}
	if cfg.HeartbeatEnabled && cfg.HeartbeatPeriod <= 0 {
		return nil, fmt.Errorf("node: heartbeat period must be positive, got %v", cfg.HeartbeatPeriod)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}

	n := &Node{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}

	n.out = NewOutbound(conn)
	n.dispatcher = NewDispatcher(actuators...)
	n.gate = NewGate(n.out)
	n.receiver = &Receiver{
		r:            conn,
		acc:          teamlink.NewAccumulator(cfg.Commands, cfg.Roster),
		dispatcher:   n.dispatcher,
		gate:         n.gate,
		observer:     n.observers,
		pollInterval: cfg.PollInterval,
		logger:       n.logger,
	}

	hb, err := NewHeartbeat(n.out, cfg.Roster, cfg.HeartbeatPayload, cfg.HeartbeatPeriod, n.observers)
	if err != nil {
		return nil, fmt.Errorf("node: heartbeat: %w", err)
	}
	n.heartbeat = hb

	return n, nil
}

// Run runs the receiver and, if enabled, the heartbeat until ctx is done or
// the receiver stops. A receiver stop cancels the heartbeat.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return n.receiver.Run(ctx)
	})
	if n.cfg.HeartbeatEnabled {
		g.Go(func() error {
			return n.heartbeat.Run(ctx)
		})
	}

	return g.Wait()
}

// Inject writes raw bytes onto the bus through the shared outbound channel.
func (n *Node) Inject(p []byte) error {
	_, err := n.out.Write(p)
	return err
}

// Receiver returns the node's receiver.
func (n *Node) Receiver() *Receiver {
	return n.receiver
}

// Heartbeat returns the node's heartbeat emitter.
func (n *Node) Heartbeat() *Heartbeat {
	return n.heartbeat
}

// Dispatcher returns the node's command dispatcher.
func (n *Node) Dispatcher() *Dispatcher {
	return n.dispatcher
}
