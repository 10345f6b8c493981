// Package metrics exposes resolution run statistics as Prometheus metrics.
//
// Runs are batch jobs, so metrics are written to a file in the text
// exposition format for the node exporter textfile collector rather than
// served over HTTP.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inodb/canonical-tx/internal/resolve"
	"github.com/inodb/canonical-tx/internal/validate"
)

const namespace = "canonical_tx"

// Metrics holds the collectors for one run.
type Metrics struct {
	registry *prometheus.Registry

	resolutions       *prometheus.CounterVec
	inputRows         *prometheus.GaugeVec
	integrityFailures *prometheus.CounterVec
	duration          prometheus.Gauge
	lastSuccess       prometheus.Gauge
}

// New creates metrics registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Genes resolved, by perspective and resolution state.",
		}, []string{"perspective", "state"}),
		inputRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "input_rows",
			Help:      "Rows loaded per input table.",
		}, []string{"input"}),
		integrityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_failures_total",
			Help:      "Offending entries per failed integrity check.",
		}, []string{"check"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote its outputs.",
		}),
	}
	m.registry.MustRegister(m.resolutions, m.inputRows, m.integrityFailures, m.duration, m.lastSuccess)
	return m
}

// Gatherer returns the registry backing m.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// SetInputRows records the size of one loaded input.
func (m *Metrics) SetInputRows(input string, n int) {
	m.inputRows.WithLabelValues(input).Set(float64(n))
}

// ObserveResolutions counts every record by perspective and state.
func (m *Metrics) ObserveResolutions(res []*resolve.Resolution) {
	for _, r := range res {
		for _, rec := range r.Records {
			m.resolutions.WithLabelValues(rec.Perspective, rec.State.String()).Inc()
		}
	}
}

// ObserveError counts integrity check offenders found anywhere in err,
// including inside joined errors. Other errors are ignored.
func (m *Metrics) ObserveError(err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			m.ObserveError(e)
		}
		return
	}
	var ie *validate.IntegrityError
	if errors.As(err, &ie) {
		m.integrityFailures.WithLabelValues(ie.Check).Add(float64(len(ie.Offenders)))
	}
}

// ObserveRun records the run duration and, on success, its completion time.
func (m *Metrics) ObserveRun(elapsed time.Duration, succeeded bool) {
	m.duration.Set(elapsed.Seconds())
	if succeeded {
		m.lastSuccess.SetToCurrentTime()
	}
}

// WriteFile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
