// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func similarityGen() gopter.Gen {
	return gen.SliceOfN(9, gen.Float64Range(0, 1))
}

// TestProperty_SubjectDropsLeadingArticle checks that exactly one leading article is removed.
func TestProperty_SubjectDropsLeadingArticle(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("leading article is omitted", prop.ForAll(
		func(article, first, second string) bool {
			prompt := article + " " + first + " " + second
			want := strings.ToLower(first + " " + second)
			return ExtractSubject(prompt) == want
		},
		gen.OneConstOf("a", "an", "the", "A", "An", "THE"),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_TemplateTaxonomy checks that every subject yields nine templates, three per tier.
func TestProperty_TemplateTaxonomy(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("nine templates with a total lookup", prop.ForAll(
		func(subject string) bool {
			set := GenerateTemplates(subject)
			if set.Len() != 9 {
				return false
			}
			for i, text := range set.Texts() {
				tier, ok := set.TierOf(text)
				if !ok || tier != Tiers[i/3] {
					return false
				}
				if !strings.HasSuffix(text, subject) {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_ScoreBounds checks the raw and percent ranges and that they vanish together.
func TestProperty_ScoreBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)
	set := GenerateTemplates("cat")

	properties.Property("raw and percent stay bounded", prop.ForAll(
		func(sims []float64) bool {
			agg, err := AggregateScores(sims, set)
			if err != nil {
				return false
			}
			if agg.Raw < 0 || agg.Raw > BoostCap*Rescale+1e-12 {
				return false
			}
			if agg.Percent < 0 || agg.Percent > 100 {
				return false
			}
			return (agg.Percent == 0) == (agg.Raw == 0)
		},
		similarityGen(),
	))

	properties.Property("negative similarities stay bounded", prop.ForAll(
		func(sims []float64) bool {
			agg, err := AggregateScores(sims, set)
			if err != nil {
				return false
			}
			return agg.Raw >= 0 && agg.Percent >= 0 && (agg.Percent == 0) == (agg.Raw == 0)
		},
		gen.SliceOfN(9, gen.Float64Range(-1, 1)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_Monotonicity checks that raising one similarity never lowers the score.
func TestProperty_Monotonicity(t *testing.T) {
	properties := gopter.NewProperties(nil)
	set := GenerateTemplates("cat")

	properties.Property("raising a similarity never lowers the score", prop.ForAll(
		func(sims []float64, idx int, delta float64) bool {
			before, err := AggregateScores(sims, set)
			if err != nil {
				return false
			}
			raised := append([]float64(nil), sims...)
			raised[idx] += delta
			after, err := AggregateScores(raised, set)
			if err != nil {
				return false
			}
			return after.Raw >= before.Raw && after.Percent >= before.Percent
		},
		gen.SliceOfN(9, gen.Float64Range(-1, 1)),
		gen.IntRange(0, 8),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_FeedbackFollowsPercent checks the verdict ordering against the thresholds.
func TestProperty_FeedbackFollowsPercent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("feedback matches the exclusive thresholds", prop.ForAll(
		func(percent float64) bool {
			got := Classify(percent)
			switch {
			case percent > 65:
				return got == FeedbackExcellent
			case percent > 45:
				return got == FeedbackGood
			case percent > 25:
				return got == FeedbackClose
			default:
				return got == FeedbackRetry
			}
		},
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
