// Package metrics exposes Prometheus counters for saves, corruption and sanity.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "unsolved"

// GameMetrics counts save activity and sanity transitions. A nil *GameMetrics discards every observation.
type GameMetrics struct {
	savesWritten      *prometheus.CounterVec
	loads             *prometheus.CounterVec
	repairs           *prometheus.CounterVec
	scumWarnings      *prometheus.CounterVec
	sanityTransitions *prometheus.CounterVec
	corruptionChance  prometheus.Gauge
}

func NewGameMetrics(reg prometheus.Registerer) *GameMetrics {
	m := &GameMetrics{
		savesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saves",
			Name:      "written_total",
			Help:      "Total snapshots written",
		}, []string{"kind", "corrupted"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saves",
			Name:      "loads_total",
			Help:      "Total snapshot reads by outcome",
		}, []string{"outcome"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saves",
			Name:      "repairs_total",
			Help:      "Total repair attempts of corrupted snapshots",
		}, []string{"outcome"}),
		scumWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scumguard",
			Name:      "decisions_total",
			Help:      "Save-scum warnings and how the player answered them",
		}, []string{"decision"}),
		sanityTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sanity",
			Name:      "transitions_total",
			Help:      "Sanity band crossings",
		}, []string{"channel", "kind"}),
		corruptionChance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "saves",
			Name:      "corruption_chance",
			Help:      "Current probability that a written snapshot is corrupted",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.savesWritten, m.loads, m.repairs, m.scumWarnings, m.sanityTransitions, m.corruptionChance)
	return m
}

func (m *GameMetrics) ObserveSaveWritten(kind string, corrupted bool) {
	if m == nil {
		return
	}
	m.savesWritten.WithLabelValues(kind, strconv.FormatBool(corrupted)).Inc()
}

func (m *GameMetrics) ObserveLoad(outcome string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
}

func (m *GameMetrics) ObserveRepair(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "repaired"
	}
	m.repairs.WithLabelValues(outcome).Inc()
}

// ObserveScumDecision records "warned", "aborted" or "continued".
func (m *GameMetrics) ObserveScumDecision(decision string) {
	if m == nil {
		return
	}
	m.scumWarnings.WithLabelValues(decision).Inc()
}

func (m *GameMetrics) ObserveSanityTransition(channel, kind string) {
	if m == nil {
		return
	}
	m.sanityTransitions.WithLabelValues(channel, kind).Inc()
}

func (m *GameMetrics) SetCorruptionChance(p float64) {
	if m == nil {
		return
	}
	m.corruptionChance.Set(p)
}
