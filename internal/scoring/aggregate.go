// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

import "fmt"

const (
	// Boost is the fractional boost applied to the combined tier score.
	Boost = 0.1
	// BoostCap caps the boosted score regardless of how well the image matches.
	BoostCap = 0.6
	// Rescale compresses the capped score toward the display range.
	Rescale = 0.7
	// MaxExpectedRaw is the raw value that maps to 100 percent.
	MaxExpectedRaw = 0.4
)

// MethodCategoryWeighted names the tier-weighted scoring method in responses.
const MethodCategoryWeighted = "category_weighted"

// TierBreakdown describes how one tier contributed to the final score.
type TierBreakdown struct {
	Tier      Tier      `json:"tier"`
	Templates []string  `json:"prompts"`
	Scores    []float64 `json:"scores"`
	Average   float64   `json:"average_score"`
	Weight    float64   `json:"weight"`
}

// Aggregate is the outcome of folding a similarity vector into a score.
type Aggregate struct {
	// Combined is the weight-normalized mean of the tier averages.
	Combined float64
	// Boosted is Combined after the boost and the cap.
	Boosted float64
	// Raw is the rescaled score reported as raw_score.
	Raw float64
	// Percent is Raw normalized against MaxExpectedRaw and clamped to [0, 100].
	Percent float64
	// Breakdown holds the tiers that had at least one template, in tier order.
	Breakdown []TierBreakdown
}

// AggregateScores groups similarities by tier, averages each tier, combines the
// averages by weight and applies boost, cap, rescale and percentage normalization.
// sims must be aligned with set.Texts(). With no tier present the score is zero.
func AggregateScores(sims []float64, set TemplateSet) (Aggregate, error) {
	texts := set.Texts()
	if len(sims) != len(texts) {
		return Aggregate{}, fmt.Errorf("%w: %d similarities for %d templates", ErrLengthMismatch, len(sims), len(texts))
	}

	var breakdown [numTiers]*TierBreakdown
	for i, text := range texts {
		tier, ok := set.TierOf(text)
		if !ok || !tier.Valid() {
			continue
		}
		if breakdown[tier] == nil {
			breakdown[tier] = &TierBreakdown{Tier: tier, Weight: tier.Weight()}
		}
		breakdown[tier].Templates = append(breakdown[tier].Templates, text)
		breakdown[tier].Scores = append(breakdown[tier].Scores, sims[i])
	}

	var weightedSum, totalWeight float64
	var out Aggregate
	for _, tier := range Tiers {
		b := breakdown[tier]
		if b == nil {
			continue
		}
		b.Average = mean(b.Scores)
		weightedSum += b.Average * b.Weight
		totalWeight += b.Weight
		out.Breakdown = append(out.Breakdown, *b)
	}

	if totalWeight > 0 {
		out.Combined = weightedSum / totalWeight
	}
	// Negative similarities floor at zero so raw stays within [0, BoostCap*Rescale].
	out.Boosted = clamp(out.Combined*(1+Boost), 0, BoostCap)
	out.Raw = out.Boosted * Rescale
	out.Percent = clamp(out.Raw/MaxExpectedRaw*100, 0, 100)
	return out, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
