// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package oracle provides the similarity oracle: a CLIP model run through the ONNX
// runtime that scores one image against an ordered list of texts.
// The model is loaded once per process and shared read-only by all requests.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrUnavailable is returned when the model could not be loaded or is shut down.
var ErrUnavailable = errors.New("similarity oracle unavailable")

// Oracle scores how close an image is to each text. The returned slice has the
// same length and order as texts; values are cosine similarities in [-1, 1].
type Oracle interface {
	Similarity(ctx context.Context, img image.Image, texts []string) ([]float64, error)
}

// Unavailable is an Oracle that always fails. It stands in for the model when
// startup initialization did not succeed, so the server can still report health.
type Unavailable struct {
	Reason error
}

// Similarity always returns ErrUnavailable.
func (u Unavailable) Similarity(context.Context, image.Image, []string) ([]float64, error) {
	if u.Reason != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, u.Reason)
	}
	return nil, ErrUnavailable
}

// registry holds a lazily initialized model. The once runs the load; mu guards
// the result so Default can be called from any goroutine at any time.
type registry struct {
	once sync.Once

	mu   sync.RWMutex
	clip *CLIP
	err  error
}

var defaultRegistry = &registry{}

// InitDefault loads the process-wide model. Only the first call does any work;
// later calls return the same engine or the same error.
func InitDefault(cfg Config) (*CLIP, error) {
	return defaultRegistry.init(cfg)
}

// Default returns the process-wide oracle, or an Unavailable oracle carrying the
// initialization error when InitDefault failed or has not completed yet.
func Default() Oracle {
	return defaultRegistry.get()
}

func (r *registry) init(cfg Config) (*CLIP, error) {
	r.once.Do(func() {
		engine, err := NewCLIP(cfg)
		if err == nil {
			err = engine.Initialize()
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.err = err
			return
		}
		r.clip = engine
		log.Infof("similarity oracle ready (model %s)", cfg.ModelName)
	})

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clip, r.err
}

func (r *registry) get() Oracle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.clip != nil {
		return r.clip
	}
	if r.err != nil {
		return Unavailable{Reason: r.err}
	}
	return Unavailable{Reason: errors.New("model not initialized")}
}
