package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks bootstrap and teardown activity with the coordtree_ prefix.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// NodesTotal counts ensured tree nodes by result (created, existed, updated)
	NodesTotal *prometheus.CounterVec

	// UploadsTotal counts config artifacts by result (created, updated, skipped, failed)
	UploadsTotal *prometheus.CounterVec

	// DeletedTotal counts nodes removed by subtree cleaning
	DeletedTotal prometheus.Counter

	// StepDuration tracks bootstrap step latency by step and status
	StepDuration *prometheus.HistogramVec

	// ServerRunning is 1 while a fixture owns a started server
	ServerRunning prometheus.Gauge
}

// NewMetrics creates and registers the metrics on reg.
// Panics if registration fails (expected during initialization only).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordtree_nodes_total",
				Help: "Total ensured tree nodes by result",
			},
			[]string{"result"},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordtree_uploads_total",
				Help: "Total configuration artifacts handled by result",
			},
			[]string{"result"},
		),
		DeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coordtree_deleted_nodes_total",
				Help: "Total nodes removed while cleaning subtrees",
			},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coordtree_step_duration_seconds",
				Help:    "Bootstrap step duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step", "status"},
		),
		ServerRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "coordtree_server_running",
				Help: "Whether the fixture currently owns a running server",
			},
		),
	}

	reg.MustRegister(
		m.NodesTotal,
		m.UploadsTotal,
		m.DeletedTotal,
		m.StepDuration,
		m.ServerRunning,
	)

	return m
}

func (m *Metrics) RecordNode(result string) {
	if m == nil {
		return
	}
	m.NodesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUpload(result string) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDeleted(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.DeletedTotal.Add(float64(count))
}

// RecordStep observes a bootstrap step that started at start.
func (m *Metrics) RecordStep(step string, start time.Time, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.StepDuration.WithLabelValues(step, status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetServerRunning(running bool) {
	if m == nil {
		return
	}

	if running {
		m.ServerRunning.Set(1)
	} else {
		m.ServerRunning.Set(0)
	}
}
