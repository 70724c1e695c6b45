// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var leadingArticles = []string{"a ", "an ", "the "}

// ExtractSubject normalizes a raw prompt into a bare subject phrase.
// The prompt is lower-cased and trimmed; a single leading article is dropped when
// at least one further word remains, and the remaining words are joined with single
// spaces. Any other prompt is returned trimmed and lower-cased.
func ExtractSubject(prompt string) string {
	cleaned := strings.ToLower(strings.TrimSpace(norm.NFC.String(prompt)))
	for _, article := range leadingArticles {
		if !strings.HasPrefix(cleaned, article) {
			continue
		}
		words := strings.Fields(cleaned)
		if len(words) > 1 {
			return strings.Join(words[1:], " ")
		}
		return cleaned
	}
	return cleaned
}
