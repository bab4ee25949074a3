// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package node

import "github.com/Thermoquad/teamlink/pkg/teamlink"

// Observer receives every event the node produces. Observe is called from
// the receiver and heartbeat goroutines and must not block for long.
type Observer interface {
	Observe(e teamlink.Event)
}

// ReadObserver is implemented by observers that also want the raw chunks
// read from the bus, before framing.
type ReadObserver interface {
	ObserveRead(p []byte)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(teamlink.Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e teamlink.Event) {
	f(e)
}

// Observers fans out to several observers in order.
type Observers []Observer

// Observe implements Observer.
func (obs Observers) Observe(e teamlink.Event) {
	for _, o := range obs {
		o.Observe(e)
	}
}

// ObserveRead implements ReadObserver for the members that support it.
func (obs Observers) ObserveRead(p []byte) {
	for _, o := range obs {
		if ro, ok := o.(ReadObserver); ok {
			ro.ObserveRead(p)
		}
	}
}

// statsObserver feeds a teamlink.Statistics.
type statsObserver struct {
	stats *teamlink.Statistics
}

// StatsObserver returns an observer that counts into stats.
func StatsObserver(stats *teamlink.Statistics) Observer {
	return statsObserver{stats: stats}
}

func (s statsObserver) Observe(e teamlink.Event) {
	s.stats.Update(e)
}

func (s statsObserver) ObserveRead(p []byte) {
	s.stats.AddBytes(len(p))
}
