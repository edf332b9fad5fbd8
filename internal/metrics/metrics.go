package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation pipeline metrics
	GenerationsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "captionforge_generations_started_total",
			Help: "Total number of subtitle generations started",
		},
	)

	GenerationsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captionforge_generations_finished_total",
			Help: "Total number of subtitle generations finished",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "captionforge_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
		},
		[]string{"stage"},
	)

	GenerationsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "captionforge_generations_in_progress",
			Help: "Number of generations currently being processed",
		},
	)

	// Rendering metrics
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captionforge_renders_total",
			Help: "Total number of subtitle renders by strategy and outcome",
		},
		[]string{"path", "status"},
	)

	OverlayFramesRenderedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "captionforge_overlay_frames_rendered_total",
			Help: "Total number of overlay frames synthesized on the advanced path",
		},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "captionforge_render_duration_seconds",
			Help:    "Wall-clock duration of a full render",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		},
		[]string{"path"},
	)

	// Export metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captionforge_exports_total",
			Help: "Total number of subtitle file exports by format",
		},
		[]string{"format"},
	)
)

// RecordGenerationStarted increments the started counter and the
// in-progress gauge.
func RecordGenerationStarted() {
	GenerationsStartedTotal.Inc()
	GenerationsInProgress.Inc()
}

// RecordGenerationFinished records a terminal outcome.
func RecordGenerationFinished(status string) {
	GenerationsFinishedTotal.WithLabelValues(status).Inc()
	GenerationsInProgress.Dec()
}

// RecordStage records one stage's duration.
func RecordStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRender records a render outcome.
func RecordRender(path, status string, seconds float64) {
	RendersTotal.WithLabelValues(path, status).Inc()
	RenderDuration.WithLabelValues(path).Observe(seconds)
}

// RecordExport records a subtitle export.
func RecordExport(format string) {
	ExportsTotal.WithLabelValues(format).Inc()
}
