// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

import "fmt"

// Template is one paraphrase of the subject, tagged with its tier.
type Template struct {
	Text string `json:"text"`
	Tier Tier   `json:"tier"`
}

// TemplateSet is the ordered list of templates for one subject together with the
// template to tier lookup. The order is the order in which texts are sent to the
// oracle and must be kept, since similarities come back positionally.
type TemplateSet struct {
	subject   string
	templates []Template
	lookup    map[string]Tier
}

// GenerateTemplates expands a subject into every tier's patterns, in tier order and
// then pattern order.
func GenerateTemplates(subject string) TemplateSet {
	set := TemplateSet{
		subject: subject,
		lookup:  make(map[string]Tier),
	}
	for _, tier := range Tiers {
		for _, pattern := range tier.Patterns() {
			text := fmt.Sprintf(pattern, subject)
			set.templates = append(set.templates, Template{Text: text, Tier: tier})
			set.lookup[text] = tier
		}
	}
	return set
}

// Subject returns the subject the set was generated from.
func (s TemplateSet) Subject() string {
	return s.subject
}

// Len returns the number of templates.
func (s TemplateSet) Len() int {
	return len(s.templates)
}

// Texts returns the ordered template strings, ready to be sent to the oracle.
func (s TemplateSet) Texts() []string {
	out := make([]string, len(s.templates))
	for i, tpl := range s.templates {
		out[i] = tpl.Text
	}
	return out
}

// TierOf looks up the tier a template string was generated for.
func (s TemplateSet) TierOf(text string) (Tier, bool) {
	tier, ok := s.lookup[text]
	return tier, ok
}

// ByTier returns the template strings of one tier in generation order.
func (s TemplateSet) ByTier(tier Tier) []string {
	var out []string
	for _, tpl := range s.templates {
		if tpl.Tier == tier {
			out = append(out, tpl.Text)
		}
	}
	return out
}
