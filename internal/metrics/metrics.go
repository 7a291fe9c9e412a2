package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of service process starts.",
		}, []string{"service"},
	)
	installs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "service",
			Name:      "installs_total",
			Help:      "Number of successful dependency installs.",
		}, []string{"service"},
	)
	installFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "service",
			Name:      "install_failures_total",
			Help:      "Number of failed dependency installs.",
		}, []string{"service"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stackup",
			Subsystem: "service",
			Name:      "probe_duration_seconds",
			Help:      "Time until a service's health endpoint first responded (or the probe gave up).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"},
	)
	unexpectedExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "service",
			Name:      "unexpected_exits_total",
			Help:      "Number of times a previously healthy service died on its own.",
		}, []string{"service"},
	)
	shutdowns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "supervisor",
			Name:      "shutdowns_total",
			Help:      "Number of shutdown passes performed.",
		},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "supervisor",
			Name:      "state_transitions_total",
			Help:      "Number of supervisor state transitions.",
		}, []string{"from", "to"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{serviceStarts, installs, installFailures, probeDuration, unexpectedExits, shutdowns, stateTransitions}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler exposes the default registry for mounting under /metrics.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(service string)          { serviceStarts.WithLabelValues(service).Inc() }
func IncInstall(service string)        { installs.WithLabelValues(service).Inc() }
func IncInstallFailure(service string) { installFailures.WithLabelValues(service).Inc() }
func IncUnexpectedExit(service string) { unexpectedExits.WithLabelValues(service).Inc() }
func IncShutdown()                     { shutdowns.Inc() }

func ObserveProbeDuration(service string, seconds float64) {
	probeDuration.WithLabelValues(service).Observe(seconds)
}

func IncStateTransition(from, to string) {
	stateTransitions.WithLabelValues(from, to).Inc()
}
