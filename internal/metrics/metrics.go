// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RotationAttempts counts provider attempts by phase and outcome
	// (success, throttled, request, transport, unknown).
	RotationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizforge_rotation_attempts_total",
		Help: "Provider attempts made by the rotation executor",
	}, []string{"phase", "outcome"})

	// RotationSkips counts credentials skipped because they were cooling down.
	RotationSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizforge_rotation_skips_total",
		Help: "Credentials skipped while cooling down",
	}, []string{"phase"})

	// RotationExhausted counts operations that failed on every credential.
	RotationExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizforge_rotation_exhausted_total",
		Help: "Operations that exhausted every credential phase",
	})

	// GenerationDuration tracks end-to-end text generation latency.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quizforge_generation_duration_seconds",
		Help:    "Quiz text generation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"provider", "result"})

	// ImageResults counts image requests by source (generated, cache, placeholder).
	ImageResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizforge_image_results_total",
		Help: "Image requests by result source",
	}, []string{"source"})

	// RepairAttempts counts re-prompts issued after unparseable output.
	RepairAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizforge_repair_attempts_total",
		Help: "Re-prompts issued after unparseable provider output",
	})
)
