// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api provides the HTTP server of sketchscore: the scoring endpoints,
// liveness and metrics, and the middleware around them.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/traylinx/sketchscore/internal/config"
	"github.com/traylinx/sketchscore/internal/logging"
	"github.com/traylinx/sketchscore/internal/metrics"
	"github.com/traylinx/sketchscore/internal/scoring"
)

// Server is the HTTP front of the scoring engine.
type Server struct {
	engine *gin.Engine
	server *http.Server

	cfg      atomic.Pointer[config.Config]
	scorer   *scoring.Engine
	registry *prometheus.Registry
	recorder *metrics.Recorder

	// modelReady reports whether the similarity model is loaded
	modelReady func() bool
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithRegistry sets the Prometheus registry the server records into and exposes on /metrics.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) { s.registry = reg }
}

// WithModelStatus sets the function used by /health to report model availability.
func WithModelStatus(ready func() bool) ServerOption {
	return func(s *Server) { s.modelReady = ready }
}

// NewServer builds the gin engine and routes. The engagement noise of scorer is
// set from cfg and follows later UpdateConfig calls.
func NewServer(cfg *config.Config, scorer *scoring.Engine, opts ...ServerOption) *Server {
	s := &Server{scorer: scorer}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.recorder = metrics.New(s.registry)
	if s.modelReady == nil {
		s.modelReady = func() bool { return true }
	}
	s.applyConfig(cfg)

	s.engine = gin.New()
	s.engine.Use(
		logging.GinLogrusLogger(),
		gin.Recovery(),
		corsMiddleware(func() config.CORSConfig { return s.config().CORS }),
		decompressMiddleware(),
		bodyLimitMiddleware(func() int { return s.config().MaxImageBytes }),
	)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", rootHandler)
	s.engine.GET("/health", s.healthHandler)
	s.engine.POST("/score-image", s.scoreImageHandler)
	s.engine.POST("/debug-score", s.debugScoreHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Recorder returns the metrics recorder of the server.
func (s *Server) Recorder() *metrics.Recorder {
	return s.recorder
}

func (s *Server) config() *config.Config {
	return s.cfg.Load()
}

// applyConfig stores cfg and reconfigures the engagement noise.
func (s *Server) applyConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
	if s.scorer != nil {
		s.scorer.SetNoise(NoiseFromConfig(cfg.Scoring.Engagement))
	}
}

// UpdateConfig applies a reloaded configuration. Listen address changes need a restart.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	prev := s.config()
	if prev != nil && prev.Addr() != cfg.Addr() {
		log.Warnf("listen address change to %s ignored until restart", cfg.Addr())
	}
	s.applyConfig(cfg)
	logging.SetDebug(cfg.Debug)
	log.Infof("configuration updated (engagement enabled=%t, timeout=%s)",
		cfg.Scoring.Engagement.Enabled, cfg.RequestTimeout())
}

// NoiseFromConfig builds the engagement noise source described by e.
func NoiseFromConfig(e config.EngagementConfig) scoring.NoiseSource {
	if !e.Enabled {
		return scoring.NoNoise{}
	}
	return scoring.NewUniformNoise(e.Min, e.Max, e.Seed)
}

// Start listens and serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Infof("API server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	log.Info("shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
