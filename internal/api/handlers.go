// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	"github.com/traylinx/sketchscore/internal/buildinfo"
	"github.com/traylinx/sketchscore/internal/imageio"
	"github.com/traylinx/sketchscore/internal/logging"
	"github.com/traylinx/sketchscore/internal/metrics"
	"github.com/traylinx/sketchscore/internal/oracle"
	"github.com/traylinx/sketchscore/internal/scoring"
)

const (
	endpointScore = "score-image"
	endpointDebug = "debug-score"
)

// errMalformedRequest marks bodies that are not a valid ScoreRequest.
var errMalformedRequest = errors.New("malformed request")

type pipelineFunc func(ctx context.Context, prompt string, img image.Image) (*scoring.Result, error)

func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello From ML_Server"})
}

func (s *Server) healthHandler(c *gin.Context) {
	snap := s.recorder.Snapshot()
	ready := s.modelReady()
	status := "ok"
	if !ready {
		status = "degraded"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:      status,
		ModelLoaded: ready,
		Requests:    snap.Requests,
		Failures:    snap.Failures,
		Uptime:      snap.Uptime.Round(time.Second).String(),
		Version:     buildinfo.Version,
	})
}

func (s *Server) scoreImageHandler(c *gin.Context) {
	res, ok := s.runPipeline(c, endpointScore, s.scorer.Score)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, newScoreResponse(res))
}

func (s *Server) debugScoreHandler(c *gin.Context) {
	res, ok := s.runPipeline(c, endpointDebug, s.scorer.Evaluate)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, newDebugResponse(res))
}

// runPipeline decodes the request and runs score under the request timeout.
// On failure it writes the error response itself and returns false.
func (s *Server) runPipeline(c *gin.Context, endpoint string, score pipelineFunc) (*scoring.Result, bool) {
	cfg := s.config()
	entry := logging.WithRequest(c)

	req, err := decodeScoreRequest(c.Request.Body)
	if err != nil {
		s.fail(c, endpoint, err)
		return nil, false
	}
	decoded, err := imageio.Decode(*req.Image, imageio.Options{
		MaxSide:  cfg.MaxImageSide,
		MaxBytes: cfg.MaxImageBytes,
	})
	if err != nil {
		s.fail(c, endpoint, err)
		return nil, false
	}
	entry.Debugf("decoded %s image %dx%d (scaled=%t) for prompt %q",
		decoded.Format, decoded.Width, decoded.Height, decoded.Scaled, *req.Prompt)

	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout())
	defer cancel()

	res, err := score(ctx, *req.Prompt, decoded.Image)
	if err != nil {
		s.fail(c, endpoint, err)
		return nil, false
	}
	s.recorder.ObserveScore(endpoint, res.Elapsed, res.Aggregate.Percent, string(res.Feedback))
	entry.Infof("scored %q: percent=%.2f feedback=%q", res.Subject, res.Aggregate.Percent, res.Feedback)
	return res, true
}

// decodeScoreRequest reads and validates a ScoreRequest body.
func decodeScoreRequest(body io.Reader) (*ScoreRequest, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", errMalformedRequest)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	var req ScoreRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: prompt and image are required", errMalformedRequest)
	}
	return &req, nil
}

// fail maps err to a status code, records it and writes the error body.
func (s *Server) fail(c *gin.Context, endpoint string, err error) {
	status, code, outcome := classifyError(err)
	s.recorder.ObserveFailure(endpoint, outcome)

	entry := logging.WithRequest(c).WithField("endpoint", endpoint)
	if status >= http.StatusInternalServerError {
		entry.Errorf("scoring failed: %v", err)
	} else {
		entry.Warnf("request rejected: %v", err)
	}
	_ = c.Error(err)
	abortWithError(c, status, code, err.Error())
}

// classifyError returns the HTTP status, error code and metrics outcome for err.
func classifyError(err error) (int, string, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", metrics.OutcomeBadRequest
	case errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest, "invalid_request", metrics.OutcomeBadRequest
	case errors.Is(err, imageio.ErrInvalidImage):
		return http.StatusBadRequest, "invalid_image", metrics.OutcomeBadRequest
	case errors.Is(err, oracle.ErrUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable", metrics.OutcomeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", metrics.OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return 499, "canceled", metrics.OutcomeTimeout
	default:
		return http.StatusInternalServerError, "scoring_failed", metrics.OutcomeError
	}
}

// writeJSON encodes v with go-json and writes it with the given status.
func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "encoding_failed", err.Error())
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
