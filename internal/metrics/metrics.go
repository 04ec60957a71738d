// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records Prometheus metrics for extraction runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry so each run (and each test) starts from
// zero.
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	facesTotal    *prometheus.CounterVec
	faceErrors    prometheus.Counter
	stageDuration *prometheus.HistogramVec
	surfaceArea   *prometheus.CounterVec
}

// New creates a recorder with all metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "step_features_runs_total",
				Help: "Extraction runs by outcome",
			},
			[]string{"status"},
		),
		facesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "step_features_faces_total",
				Help: "Faces extracted by surface type",
			},
			[]string{"surface_type"},
		),
		faceErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "step_features_face_errors_total",
				Help: "Faces whose geometric queries failed",
			},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "step_features_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		surfaceArea: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "step_features_surface_area_mm2_total",
				Help: "Total face area by surface type in square millimetres",
			},
			[]string{"surface_type"},
		),
	}
}

// Registry returns the underlying registry, for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// RecordRun counts a finished run; status is "success" or "failure".
func (r *Recorder) RecordRun(status string) {
	r.runs.WithLabelValues(status).Inc()
}

// RecordFace counts one extracted face.
func (r *Recorder) RecordFace(surfaceType string, area float64) {
	r.facesTotal.WithLabelValues(surfaceType).Inc()
	r.surfaceArea.WithLabelValues(surfaceType).Add(area)
}

// RecordFaceErrors counts failed faces.
func (r *Recorder) RecordFaceErrors(n int) {
	r.faceErrors.Add(float64(n))
}

// RecordStage observes the duration of a pipeline stage.
func (r *Recorder) RecordStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Timer measures the duration of a stage.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
