// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

import (
	"math/rand/v2"
	"sync"
)

const (
	// DefaultEngagementMin is the lower bound of the default engagement factor.
	DefaultEngagementMin = -3.0
	// DefaultEngagementMax is the upper bound of the default engagement factor.
	DefaultEngagementMax = 10.0
)

// NoiseSource produces the engagement factor added to the displayed percentage.
// The factor is unrelated to image content; it only perturbs what is shown.
type NoiseSource interface {
	EngagementFactor() float64
}

// NoNoise disables the engagement factor.
type NoNoise struct{}

// EngagementFactor always returns 0.
func (NoNoise) EngagementFactor() float64 { return 0 }

// UniformNoise draws the engagement factor uniformly from [Min, Max).
type UniformNoise struct {
	min, max float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformNoise returns a uniform noise source. A zero seed uses the process-wide
// random source; any other seed makes the sequence reproducible.
func NewUniformNoise(min, max float64, seed uint64) *UniformNoise {
	if max < min {
		min, max = max, min
	}
	n := &UniformNoise{min: min, max: max}
	if seed != 0 {
		n.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return n
}

// Bounds returns the configured range.
func (n *UniformNoise) Bounds() (float64, float64) {
	return n.min, n.max
}

// EngagementFactor returns a uniform draw from the configured range.
func (n *UniformNoise) EngagementFactor() float64 {
	var u float64
	if n.rng == nil {
		u = rand.Float64()
	} else {
		n.mu.Lock()
		u = n.rng.Float64()
		n.mu.Unlock()
	}
	return n.min + u*(n.max-n.min)
}
