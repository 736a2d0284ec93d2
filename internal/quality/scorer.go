// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality evaluates content against five weighted criteria
// (credibility, relevance, accuracy, completeness, timeliness) and produces
// an aggregate score with targeted improvement suggestions. Evaluation is
// fully deterministic: identical content and hints yield bit-identical
// scores, so orchestration can gate on them.
package quality

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ErrConfiguration reports invalid scorer settings.
var ErrConfiguration = errors.New("invalid scoring configuration")

// weightEpsilon is the tolerance for the weights-sum-to-one check.
const weightEpsilon = 1e-9

// defaultThreshold is the score below which a criterion earns a suggestion.
const defaultThreshold = 6.0

// defaultReferenceYear anchors recency heuristics when the configuration
// does not set one. Scoring never reads the wall clock.
const defaultReferenceYear = 2026

// Hints carry optional context for evaluation, such as the declared source
// list (credibility) and the declared target audience (relevance).
type Hints struct {
	// SourceURLs lists the URLs of the sources the content drew on.
	SourceURLs []string

	// Audience is the declared target audience of the content.
	Audience string
}

// Scorer evaluates content under a fixed weight configuration. A Scorer is
// immutable after construction and safe for concurrent use.
type Scorer struct {
	weights   types.Weights
	threshold float64
	refYear   int
}

// NewScorer validates the configuration and returns a scorer. Weights must
// be non-negative and sum to 1.0 within epsilon; a zero Weights value
// selects the equal-weight default. The threshold defaults to 6.0 and must
// lie in [0,10].
func NewScorer(cfg types.ScoringConfig) (*Scorer, error) {
	w := cfg.Weights
	if w == (types.Weights{}) {
		w = types.EqualWeights()
	}
	for _, c := range types.Criteria {
		if w.ByCriterion(c) < 0 {
			return nil, fmt.Errorf("%w: weight for %s is negative", ErrConfiguration, c)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightEpsilon {
		return nil, fmt.Errorf("%w: weights sum to %v, want 1.0", ErrConfiguration, sum)
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	if threshold < 0 || threshold > 10 {
		return nil, fmt.Errorf("%w: threshold %v outside [0,10]", ErrConfiguration, threshold)
	}

	refYear := cfg.ReferenceYear
	if refYear == 0 {
		refYear = defaultReferenceYear
	}

	return &Scorer{weights: w, threshold: threshold, refYear: refYear}, nil
}

// Threshold returns the suggestion threshold in effect.
func (s *Scorer) Threshold() float64 { return s.threshold }

// Evaluate scores content against the five criteria and returns an
// immutable QualityScore whose aggregate is the weighted mean of the
// criteria under the scorer's weights.
func (s *Scorer) Evaluate(content string, hints Hints) types.QualityScore {
	score := types.QualityScore{
		Credibility:  s.credibility(content, hints),
		Relevance:    s.relevance(content, hints),
		Accuracy:     s.accuracy(content),
		Completeness: s.completeness(content),
		Timeliness:   s.timeliness(content),
	}
	score.Aggregate = s.aggregate(score)
	score.Suggestions = s.SuggestImprovements(score)
	return score
}

// aggregate computes the weighted mean of the five criterion scores.
func (s *Scorer) aggregate(q types.QualityScore) float64 {
	var sum float64
	for _, c := range types.Criteria {
		sum += q.ByCriterion(c) * s.weights.ByCriterion(c)
	}
	return sum
}

// clamp bounds a criterion score to [0,10].
func clamp(v float64) float64 {
	return math.Min(10.0, math.Max(0.0, v))
}
