// Package metrics exposes Prometheus counters for plans and submissions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	verdicts    *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	submissions *prometheus.CounterVec
	inFlight    prometheus.Gauge
	plannedRisk *prometheus.HistogramVec
}

// New registers the engine metrics with reg. Passing nil creates a private
// registry, which keeps tests independent of each other.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskexec_verdicts_total",
				Help: "Trade candidates evaluated, by result",
			},
			[]string{"mode", "result"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskexec_rejection_reasons_total",
				Help: "Validator reasons, one count per reason on a rejected candidate",
			},
			[]string{"code"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskexec_submissions_total",
				Help: "Order submission outcomes",
			},
			[]string{"mode", "outcome"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "riskexec_submissions_in_flight",
				Help: "Orders currently being submitted",
			},
		),
		plannedRisk: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskexec_planned_risk_percent",
				Help:    "Percent of balance at risk on accepted candidates",
				Buckets: []float64{0.25, 0.5, 0.75, 1, 1.5, 2},
			},
			[]string{"mode"},
		),
	}

	reg.MustRegister(m.verdicts, m.rejections, m.submissions, m.inFlight, m.plannedRisk)
	return m
}

func (m *Metrics) ObserveVerdict(mode string, accepted bool, codes []string, riskPct float64) {
	if m == nil {
		return
	}
	if accepted {
		m.verdicts.WithLabelValues(mode, "accepted").Inc()
		m.plannedRisk.WithLabelValues(mode).Observe(riskPct)
		return
	}
	m.verdicts.WithLabelValues(mode, "rejected").Inc()
	for _, c := range codes {
		m.rejections.WithLabelValues(c).Inc()
	}
}

func (m *Metrics) ObserveSubmission(mode, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(mode, outcome).Inc()
}

// SubmissionStarted bumps the in-flight gauge and returns its release.
func (m *Metrics) SubmissionStarted() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
