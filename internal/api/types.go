// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/traylinx/sketchscore/internal/scoring"
)

// ScoreRequest is the body of both scoring endpoints. Pointers distinguish a
// missing field from an empty one; an empty prompt is allowed.
type ScoreRequest struct {
	Prompt *string `json:"prompt" binding:"required"`
	Image  *string `json:"image" binding:"required"`
}

// ScoreResponse is returned by POST /score-image.
type ScoreResponse struct {
	Prompt            string  `json:"prompt"`
	Confidence        float64 `json:"confidence"`
	ConfidencePercent float64 `json:"confidence_percent"`
	ScoringMethod     string  `json:"scoring_method"`
	RawScore          float64 `json:"raw_score"`
	Boost             float64 `json:"boost"`
	Feedback          string  `json:"feedback"`
	EngagementFactor  float64 `json:"engagement_factor"`
}

// DebugResponse is returned by POST /debug-score.
type DebugResponse struct {
	Prompt            string            `json:"prompt"`
	SubjectExtracted  string            `json:"subject_extracted"`
	FinalScore        FinalScore        `json:"final_score"`
	CategoryBreakdown CategoryBreakdown `json:"category_breakdown"`
	TotalPrompts      int               `json:"total_prompts"`
}

// FinalScore is the unperturbed outcome of the debug pipeline.
type FinalScore struct {
	Raw     float64 `json:"raw"`
	Percent float64 `json:"percent"`
}

// CategoryDetail describes one tier in the debug breakdown.
type CategoryDetail struct {
	Prompts      []string  `json:"prompts"`
	Scores       []float64 `json:"scores"`
	AverageScore float64   `json:"average_score"`
	Weight       float64   `json:"weight"`
}

// CategoryEntry pairs a tier with its detail.
type CategoryEntry struct {
	Tier   scoring.Tier
	Detail CategoryDetail
}

// CategoryBreakdown is a JSON object keyed by tier name that keeps tier order.
type CategoryBreakdown []CategoryEntry

// MarshalJSON renders the breakdown as an object in tier order.
func (b CategoryBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := entry.Tier.MarshalText()
		if err != nil {
			return nil, err
		}
		key, err := json.Marshal(string(name))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Detail)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Requests    int64  `json:"requests"`
	Failures    int64  `json:"failures"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
}

func newScoreResponse(res *scoring.Result) ScoreResponse {
	return ScoreResponse{
		Prompt:            res.Prompt,
		Confidence:        res.Confidence(),
		ConfidencePercent: res.DisplayPercent,
		ScoringMethod:     scoring.MethodCategoryWeighted,
		RawScore:          scoring.Round(res.Aggregate.Raw, 4),
		Boost:             scoring.Boost,
		Feedback:          string(res.Feedback),
		EngagementFactor:  res.EngagementFactor,
	}
}

func newDebugResponse(res *scoring.Result) DebugResponse {
	breakdown := make(CategoryBreakdown, 0, len(res.Aggregate.Breakdown))
	for _, tb := range res.Aggregate.Breakdown {
		scores := make([]float64, len(tb.Scores))
		for i, s := range tb.Scores {
			scores[i] = scoring.Round(s, 4)
		}
		breakdown = append(breakdown, CategoryEntry{
			Tier: tb.Tier,
			Detail: CategoryDetail{
				Prompts:      tb.Templates,
				Scores:       scores,
				AverageScore: scoring.Round(tb.Average, 4),
				Weight:       tb.Weight,
			},
		})
	}
	return DebugResponse{
		Prompt:           res.Prompt,
		SubjectExtracted: res.Subject,
		FinalScore: FinalScore{
			Raw:     scoring.Round(res.Aggregate.Raw, 4),
			Percent: scoring.Round(res.Aggregate.Percent, 2),
		},
		CategoryBreakdown: breakdown,
		TotalPrompts:      res.Templates.Len(),
	}
}
