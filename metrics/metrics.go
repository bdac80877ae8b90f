// Package metrics exposes bot counters to Prometheus.
package metrics

import (
	"Nocturne/cache"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry      *prometheus.Registry
	TracksStarted prometheus.Counter
	TrackFailures *prometheus.CounterVec
	CommandsTotal *prometheus.CounterVec
	ActiveVoice   prometheus.Gauge
	QueuedTracks  prometheus.GaugeFunc
}

// New creates the collectors on a private registry. queued reports the
// number of tracks waiting across all guilds.
func New(queued func() int) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TracksStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nocturne_tracks_started_total",
				Help: "Total number of tracks that started playing",
			},
		),
		TrackFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nocturne_track_failures_total",
				Help: "Total number of tracks that failed to play",
			},
			[]string{"reason"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nocturne_commands_total",
				Help: "Total number of commands handled",
			},
			[]string{"command", "status"},
		),
		ActiveVoice: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nocturne_voice_sessions",
				Help: "Number of connected voice sessions",
			},
		),
	}
	if queued == nil {
		queued = func() int { return 0 }
	}
	m.QueuedTracks = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "nocturne_queued_tracks",
			Help: "Tracks waiting in all guild queues",
		},
		func() float64 { return float64(queued()) },
	)

	m.Registry.MustRegister(
		m.TracksStarted,
		m.TrackFailures,
		m.CommandsTotal,
		m.ActiveVoice,
		m.QueuedTracks,
	)
	return m
}

// WatchCache exports the cache's hit and miss counters.
func (m *Metrics) WatchCache(c cache.Cache) {
	for _, ns := range cache.Namespaces {
		labels := prometheus.Labels{"namespace": string(ns)}
		m.Registry.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name:        "nocturne_cache_hits_total",
				Help:        "Cache hits per namespace",
				ConstLabels: labels,
			}, func() float64 { return float64(c.Stats()[ns].Hits) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name:        "nocturne_cache_misses_total",
				Help:        "Cache misses per namespace",
				ConstLabels: labels,
			}, func() float64 { return float64(c.Stats()[ns].Misses) }),
		)
	}
}

func (m *Metrics) TrackStarted(string) {
	m.TracksStarted.Inc()
}

func (m *Metrics) TrackFailed(reason string) {
	m.TrackFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) VoiceSessions(n int) {
	m.ActiveVoice.Set(float64(n))
}

// CommandHandled counts a command by name and outcome.
func (m *Metrics) CommandHandled(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CommandsTotal.WithLabelValues(name, status).Inc()
}
