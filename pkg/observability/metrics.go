// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing helpers for the mapping pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MappingMetrics holds all Prometheus metrics for the mapping pipeline.
type MappingMetrics struct {
	// Identifier flow metrics
	IdentifiersProcessedTotal *prometheus.CounterVec
	CompositesExpandedTotal   prometheus.Counter
	NormalizationsTotal       *prometheus.CounterVec

	// Stage metrics
	StageSeconds     *prometheus.HistogramVec
	StageRunsTotal   *prometheus.CounterVec
	CoverageFraction *prometheus.GaugeVec

	// Matching metrics
	MatchConfidence *prometheus.HistogramVec

	// Resolution service metrics
	ResolutionBatchesTotal *prometheus.CounterVec
	ResolutionSeconds      prometheus.Histogram
}

// DefaultMappingMetrics creates metrics on the default registerer.
func DefaultMappingMetrics() *MappingMetrics {
	return NewMappingMetrics(prometheus.DefaultRegisterer)
}

// NewMappingMetrics creates a new set of mapping pipeline metrics.
func NewMappingMetrics(reg prometheus.Registerer) *MappingMetrics {
	factory := promauto.With(reg)

	return &MappingMetrics{
		IdentifiersProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biomapper_identifiers_processed_total",
				Help: "Total identifiers processed per stage and outcome",
			},
			[]string{"stage", "method", "status"},
		),
		CompositesExpandedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "biomapper_composites_expanded_total",
				Help: "Total composite identifiers split into components",
			},
		),
		NormalizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biomapper_normalizations_total",
				Help: "Total normalization operations by kind",
			},
			[]string{"kind"},
		),

		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biomapper_stage_seconds",
				Help:    "Stage execution latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"stage", "action"},
		),
		StageRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biomapper_stage_runs_total",
				Help: "Total stage executions by status",
			},
			[]string{"stage", "action", "status"},
		),
		CoverageFraction: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "biomapper_coverage_fraction",
				Help: "Cumulative mapping coverage after each stage",
			},
			[]string{"stage"},
		),

		MatchConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biomapper_match_confidence",
				Help:    "Match confidence scores by method",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1.0},
			},
			[]string{"method"},
		),

		ResolutionBatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biomapper_resolution_batches_total",
				Help: "Total historical resolution batches by status",
			},
			[]string{"status"},
		),
		ResolutionSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "biomapper_resolution_seconds",
				Help:    "Historical resolution batch latency",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}
}

// RecordIdentifier records one identifier outcome for a stage.
func (m *MappingMetrics) RecordIdentifier(stage, method, status string) {
	m.IdentifiersProcessedTotal.WithLabelValues(stage, method, status).Inc()
}

// RecordCompositeExpansion records composite identifiers being split.
func (m *MappingMetrics) RecordCompositeExpansion(count int) {
	m.CompositesExpandedTotal.Add(float64(count))
}

// RecordNormalization records a normalization operation by kind.
func (m *MappingMetrics) RecordNormalization(kind string, count int) {
	m.NormalizationsTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordStage records a stage completion.
func (m *MappingMetrics) RecordStage(stage, action, status string, seconds float64) {
	m.StageRunsTotal.WithLabelValues(stage, action, status).Inc()
	m.StageSeconds.WithLabelValues(stage, action).Observe(seconds)
}

// SetCoverage sets the cumulative coverage after a stage.
func (m *MappingMetrics) SetCoverage(stage string, fraction float64) {
	m.CoverageFraction.WithLabelValues(stage).Set(fraction)
}

// RecordMatchConfidence records a match confidence score.
func (m *MappingMetrics) RecordMatchConfidence(method string, confidence float64) {
	m.MatchConfidence.WithLabelValues(method).Observe(confidence)
}

// RecordResolutionBatch records a resolution service batch.
func (m *MappingMetrics) RecordResolutionBatch(status string, seconds float64) {
	m.ResolutionBatchesTotal.WithLabelValues(status).Inc()
	m.ResolutionSeconds.Observe(seconds)
}
