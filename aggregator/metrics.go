// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics about aggregation cycles.  A
// nil *Metrics records nothing.
type Metrics struct {
	// Outcomes counts sources by final state.
	Outcomes *prometheus.CounterVec

	// Collisions counts relation types that two sources
	// published with different addresses.
	Collisions prometheus.Counter

	// CycleDuration observes how long each cycle takes.
	CycleDuration prometheus.Histogram

	// Resources is the size of the most recently published
	// catalog.
	Resources prometheus.Gauge
}

// NewMetrics creates a new, unregistered, set of metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "diffeo",
				Subsystem: "jsonhome",
				Name:      "source_outcomes_total",
				Help:      "Directory sources processed, by final state",
			},
			[]string{
				"source",
				"state",
			},
		),
		Collisions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "diffeo",
				Subsystem: "jsonhome",
				Name:      "collisions_total",
				Help:      "Relation types published with conflicting addresses",
			},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "diffeo",
				Subsystem: "jsonhome",
				Name:      "cycle_duration_seconds",
				Help:      "Time taken by one aggregation cycle",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Resources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "diffeo",
				Subsystem: "jsonhome",
				Name:      "catalog_resources",
				Help:      "Relation types in the published catalog",
			},
		),
	}
}

// MustRegister registers every metric with r, panicking on failure.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.Outcomes, m.Collisions, m.CycleDuration, m.Resources)
}

func (m *Metrics) observe(result *Result) {
	if m == nil {
		return
	}
	for _, outcome := range result.Outcomes {
		m.Outcomes.With(prometheus.Labels{
			"source": outcome.Source.Href,
			"state":  outcome.State.String(),
		}).Inc()
	}
	m.Collisions.Add(float64(len(result.Collisions)))
	m.CycleDuration.Observe(result.Finished.Sub(result.Started).Seconds())
	m.Resources.Set(float64(result.Home.Len()))
}
