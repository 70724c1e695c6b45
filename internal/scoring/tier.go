// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scoring implements the confidence scoring engine.
// A prompt is reduced to its subject, expanded into tiers of deliberately weakened
// paraphrases, scored against an image by a similarity oracle and folded into a
// bounded, lenient confidence percentage with a coarse textual verdict.
package scoring

import "fmt"

// Tier is one of the fixed confidence categories a template belongs to.
type Tier int

const (
	// TierMediumLow groups sketch-like paraphrases ("a rough sketch of ...").
	TierMediumLow Tier = iota
	// TierLow groups loose resemblance paraphrases ("something like ...").
	TierLow
	// TierVeryLow groups tentative paraphrases ("maybe ...").
	TierVeryLow

	numTiers
)

// Tiers lists every tier in emission order.
var Tiers = [numTiers]Tier{TierMediumLow, TierLow, TierVeryLow}

var tierNames = [numTiers]string{
	TierMediumLow: "medium_low",
	TierLow:       "low",
	TierVeryLow:   "very_low",
}

// tierWeights is the single source of truth for tier weights. The aggregator and
// the debug breakdown both read it through Weight.
var tierWeights = [numTiers]float64{
	TierMediumLow: 0.55,
	TierLow:       0.30,
	TierVeryLow:   0.15,
}

// tierPatterns holds the paraphrase patterns per tier; %s is replaced by the subject.
var tierPatterns = [numTiers][]string{
	TierMediumLow: {
		"a rough sketch of %s",
		"a simple drawing of %s",
		"a doodle of %s",
	},
	TierLow: {
		"something like %s",
		"resembling %s",
		"inspired by %s",
	},
	TierVeryLow: {
		"maybe %s",
		"could be %s",
		"possibly %s",
	},
}

// String returns the wire name of the tier.
func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Valid reports whether t is one of the declared tiers.
func (t Tier) Valid() bool {
	return t >= 0 && t < numTiers
}

// Weight returns the aggregation weight of the tier, or 0 for an unknown tier.
func (t Tier) Weight() float64 {
	if !t.Valid() {
		return 0
	}
	return tierWeights[t]
}

// Patterns returns a copy of the paraphrase patterns of the tier.
func (t Tier) Patterns() []string {
	if !t.Valid() {
		return nil
	}
	out := make([]string, len(tierPatterns[t]))
	copy(out, tierPatterns[t])
	return out
}

// MarshalText encodes the tier as its wire name so it can key JSON maps.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}
