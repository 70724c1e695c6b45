// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scoring

// Feedback is the coarse verdict shown next to a score.
type Feedback string

const (
	FeedbackExcellent Feedback = "Excellent match!"
	FeedbackGood      Feedback = "Good job!"
	FeedbackClose     Feedback = "Getting there!"
	FeedbackRetry     Feedback = "Try again!"
)

// feedbackThresholds are exclusive lower bounds, checked top-down.
var feedbackThresholds = []struct {
	above    float64
	feedback Feedback
}{
	{65, FeedbackExcellent},
	{45, FeedbackGood},
	{25, FeedbackClose},
}

// Classify maps a confidence percentage to its feedback.
func Classify(percent float64) Feedback {
	for _, th := range feedbackThresholds {
		if percent > th.above {
			return th.feedback
		}
	}
	return FeedbackRetry
}
