// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports node activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// NodeMetrics counts node events. It is a node observer.
type NodeMetrics struct {
	Events        *prometheus.CounterVec // labels: kind
	BytesReceived prometheus.Counter
	MotorSpeed    prometheus.Gauge
	LastHeartbeat prometheus.Gauge
}

// NewNodeMetrics registers and returns the node metrics.
func NewNodeMetrics(reg prometheus.Registerer) *NodeMetrics {
	m := &NodeMetrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamlink",
			Name:      "events_total",
			Help:      "Node events by kind.",
		}, []string{"kind"}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teamlink",
			Name:      "bytes_received_total",
			Help:      "Raw bytes read from the bus.",
		}),
		MotorSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teamlink",
			Name:      "motor_speed_percent",
			Help:      "Last commanded motor speed.",
		}),
		LastHeartbeat: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teamlink",
			Name:      "last_heartbeat_timestamp_seconds",
			Help:      "Unix time of the last heartbeat sent.",
		}),
	}
	reg.MustRegister(m.Events, m.BytesReceived, m.MotorSpeed, m.LastHeartbeat)
	return m
}

// Observe counts e.
func (m *NodeMetrics) Observe(e teamlink.Event) {
	m.Events.WithLabelValues(e.Kind.String()).Inc()
	switch e.Kind {
	case teamlink.EventCommand:
		m.MotorSpeed.Set(float64(e.Value))
	case teamlink.EventHeartbeat:
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		m.LastHeartbeat.Set(float64(ts.UnixNano()) / 1e9)
	}
}

// ObserveRead counts raw bytes.
func (m *NodeMetrics) ObserveRead(p []byte) {
	m.BytesReceived.Add(float64(len(p)))
}

// Serve exposes reg on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, reg, logger)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, reg *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
