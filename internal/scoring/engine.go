// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrLengthMismatch is returned when the oracle does not return exactly one
// similarity per template.
var ErrLengthMismatch = errors.New("similarity vector does not match templates")

// SimilarityOracle scores how close an image is to each of an ordered list of texts.
// The returned slice is aligned with texts.
type SimilarityOracle interface {
	Similarity(ctx context.Context, img image.Image, texts []string) ([]float64, error)
}

// Result is the full outcome of scoring one prompt against one image.
type Result struct {
	Prompt       string
	Subject      string
	Templates    TemplateSet
	Similarities []float64
	Aggregate    Aggregate
	Feedback     Feedback

	// EngagementFactor is the noise added to DisplayPercent; 0 when noise is off.
	EngagementFactor float64
	// DisplayPercent is the percentage rounded to two places plus the engagement factor.
	DisplayPercent float64

	Elapsed time.Duration
}

// Confidence returns the unperturbed percentage on a 0-1 scale.
func (r *Result) Confidence() float64 {
	return r.Aggregate.Percent / 100
}

type noiseBox struct{ NoiseSource }

// Engine runs the scoring pipeline against a similarity oracle.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	oracle SimilarityOracle
	noise  atomic.Value
}

// Option configures an Engine.
type Option func(*Engine)

// WithNoise sets the engagement noise source. Passing nil disables noise.
func WithNoise(n NoiseSource) Option {
	return func(e *Engine) { e.SetNoise(n) }
}

// NewEngine creates an engine backed by the given oracle. Noise is off unless
// WithNoise is supplied.
func NewEngine(oracle SimilarityOracle, opts ...Option) *Engine {
	e := &Engine{oracle: oracle}
	e.noise.Store(noiseBox{NoNoise{}})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetNoise swaps the engagement noise source; safe to call while scoring.
func (e *Engine) SetNoise(n NoiseSource) {
	if n == nil {
		n = NoNoise{}
	}
	e.noise.Store(noiseBox{n})
}

// Noise returns the current engagement noise source.
func (e *Engine) Noise() NoiseSource {
	return e.noise.Load().(noiseBox).NoiseSource
}

// Score runs the full pipeline and applies the engagement factor to the displayed
// percentage.
func (e *Engine) Score(ctx context.Context, prompt string, img image.Image) (*Result, error) {
	res, err := e.Evaluate(ctx, prompt, img)
	if err != nil {
		return nil, err
	}
	res.EngagementFactor = e.Noise().EngagementFactor()
	res.DisplayPercent = Round(res.Aggregate.Percent, 2) + res.EngagementFactor
	return res, nil
}

// Evaluate runs the pipeline without any engagement noise.
func (e *Engine) Evaluate(ctx context.Context, prompt string, img image.Image) (*Result, error) {
	if e.oracle == nil {
		return nil, fmt.Errorf("scoring: no similarity oracle configured")
	}
	start := time.Now()

	subject := ExtractSubject(prompt)
	set := GenerateTemplates(subject)

	sims, err := e.oracle.Similarity(ctx, img, set.Texts())
	if err != nil {
		return nil, fmt.Errorf("scoring: similarity: %w", err)
	}

	agg, err := AggregateScores(sims, set)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	res := &Result{
		Prompt:         prompt,
		Subject:        subject,
		Templates:      set,
		Similarities:   sims,
		Aggregate:      agg,
		Feedback:       Classify(agg.Percent),
		DisplayPercent: Round(agg.Percent, 2),
		Elapsed:        time.Since(start),
	}
	log.Debugf("scored subject %q: raw=%.4f percent=%.2f feedback=%q in %s",
		subject, agg.Raw, agg.Percent, res.Feedback, res.Elapsed)
	return res, nil
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
