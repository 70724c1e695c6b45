// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics records scoring activity as Prometheus metrics and keeps a
// small in-process snapshot for health reporting.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeBadRequest  = "bad_request"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
)

// Recorder tracks scoring requests. All methods are safe for concurrent use.
type Recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	percent  prometheus.Histogram
	feedback *prometheus.CounterVec

	// Counters mirrored for Snapshot
	total    atomic.Int64
	failures atomic.Int64

	startTime time.Time
}

// Snapshot is a point-in-time view of the recorder.
type Snapshot struct {
	Requests int64         `json:"requests"`
	Failures int64         `json:"failures"`
	Uptime   time.Duration `json:"uptime_ns"`
}

// New registers the scoring metrics with reg. Passing nil uses the default
// Prometheus registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchscore_requests_total",
				Help: "Total number of scoring requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchscore_scoring_duration_seconds",
				Help:    "Time spent in the scoring pipeline, including model inference",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"endpoint"},
		),
		percent: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sketchscore_confidence_percent",
				Help:    "Distribution of computed confidence percentages before engagement noise",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
		),
		feedback: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchscore_feedback_total",
				Help: "Number of scored requests per feedback verdict",
			},
			[]string{"feedback"},
		),
		startTime: time.Now(),
	}
}

// ObserveScore records a successful scoring run.
func (r *Recorder) ObserveScore(endpoint string, elapsed time.Duration, percent float64, feedback string) {
	if r == nil {
		return
	}
	r.total.Add(1)
	r.requests.WithLabelValues(endpoint, OutcomeOK).Inc()
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	r.percent.Observe(percent)
	r.feedback.WithLabelValues(feedback).Inc()
}

// ObserveFailure records a request that produced no score.
func (r *Recorder) ObserveFailure(endpoint, outcome string) {
	if r == nil {
		return
	}
	r.total.Add(1)
	r.failures.Add(1)
	r.requests.WithLabelValues(endpoint, outcome).Inc()
}

// Snapshot returns the current counters.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		Requests: r.total.Load(),
		Failures: r.failures.Load(),
		Uptime:   time.Since(r.startTime),
	}
}
