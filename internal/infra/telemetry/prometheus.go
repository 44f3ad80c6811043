package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bazaarmcp/internal/domain"
)

type PrometheusMetrics struct {
	fetchDuration *prometheus.HistogramVec
	snapshotSaves *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bazaarmcp_fetch_duration_seconds",
				Help:    "Duration of bazaar API requests in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
		snapshotSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bazaarmcp_snapshot_saves_total",
				Help: "Total number of snapshot save attempts",
			},
			[]string{"backend", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bazaarmcp_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bazaarmcp_tool_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),
	}
}

func (p *PrometheusMetrics) ObserveFetch(duration time.Duration, err error) {
	p.fetchDuration.WithLabelValues(statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveSnapshotSave(backend domain.SnapshotBackend, err error) {
	p.snapshotSaves.WithLabelValues(string(backend), statusLabel(err)).Inc()
}

func (p *PrometheusMetrics) ObserveToolCall(tool string, status domain.CallStatus, duration time.Duration) {
	p.toolCalls.WithLabelValues(tool, string(status)).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return string(domain.CallStatusError)
	}
	return string(domain.CallStatusSuccess)
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
