// Package metrics exposes tracker counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "choreweek"

// Metrics implements tracker.Recorder and tracker.Subscriber. It owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	transitions         *prometheus.CounterVec
	staleReferences     *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	events              *prometheus.CounterVec
	weeklyResets        *prometheus.CounterVec
	pointsAwarded       prometheus.Counter
	pointsDeducted      prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Reducer transitions applied, by action.",
		}, []string{"action"}),
		staleReferences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_references_total",
			Help:      "Actions rejected because they named a missing entity, by action.",
		}, []string{"action"}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed storage operations, by target.",
		}, []string{"target"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events emitted by transitions, by kind.",
		}, []string{"kind"}),
		weeklyResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weekly_resets_total",
			Help:      "Weekly resets, by trigger.",
		}, []string{"trigger"}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points added to members.",
		}),
		pointsDeducted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_deducted_total",
			Help:      "Points removed from members.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions,
		m.staleReferences,
		m.persistenceFailures,
		m.events,
		m.weeklyResets,
		m.pointsAwarded,
		m.pointsDeducted,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// WatchPoints exports the household's current total points, read from fn
// at scrape time.
func (m *Metrics) WatchPoints(fn func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "household_points",
		Help:      "Sum of all members' current points.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) Transition(action string) {
	m.transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) StaleReference(action string) {
	m.staleReferences.WithLabelValues(action).Inc()
}

func (m *Metrics) PersistenceFailure(target string) {
	m.persistenceFailures.WithLabelValues(target).Inc()
}

func (m *Metrics) Notify(events []state.Event, _ model.Configuration) {
	for _, ev := range events {
		m.events.WithLabelValues(string(ev.Kind)).Inc()

		switch ev.Kind {
		case state.EventWeekReset:
			trigger := "scheduled"
			if ev.Manual {
				trigger = "manual"
			}
			m.weeklyResets.WithLabelValues(trigger).Inc()
		case state.EventTaskCompleted, state.EventTaskUncompleted, state.EventRewardClaimed,
			state.EventMemberPenalized, state.EventInfractionCompensated:
			if ev.Points > 0 {
				m.pointsAwarded.Add(float64(ev.Points))
			} else if ev.Points < 0 {
				m.pointsDeducted.Add(float64(-ev.Points))
			}
		}
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts and times requests served by next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.httpRequests,
		promhttp.InstrumentHandlerDuration(m.httpDuration, next))
}
