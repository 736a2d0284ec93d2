// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Criterion names one of the five quality dimensions.
type Criterion string

const (
	CriterionCredibility  Criterion = "credibility"
	CriterionRelevance    Criterion = "relevance"
	CriterionAccuracy     Criterion = "accuracy"
	CriterionCompleteness Criterion = "completeness"
	CriterionTimeliness   Criterion = "timeliness"
)

// Criteria lists the five quality dimensions in canonical order. Suggestion
// output and weight validation iterate in this order.
var Criteria = []Criterion{
	CriterionCredibility,
	CriterionRelevance,
	CriterionAccuracy,
	CriterionCompleteness,
	CriterionTimeliness,
}

// QualityScore is the result of evaluating one piece of content. Values are
// immutable once created; re-evaluation produces a new QualityScore.
type QualityScore struct {
	// Per-criterion scores, each in [0,10].
	Credibility  float64 `json:"credibility" yaml:"credibility"`
	Relevance    float64 `json:"relevance" yaml:"relevance"`
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Timeliness   float64 `json:"timeliness" yaml:"timeliness"`

	// Aggregate is the weighted mean of the five criteria under the
	// scorer's weight configuration. It is computed when the score is
	// built and is never stored independently of the criteria.
	Aggregate float64 `json:"aggregate" yaml:"aggregate"`

	// Suggestions lists targeted improvement advice for criteria that
	// fell below the scorer's threshold, in canonical criterion order.
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// ByCriterion returns the score for the named criterion, or 0 for an
// unknown name.
func (q QualityScore) ByCriterion(c Criterion) float64 {
	switch c {
	case CriterionCredibility:
		return q.Credibility
	case CriterionRelevance:
		return q.Relevance
	case CriterionAccuracy:
		return q.Accuracy
	case CriterionCompleteness:
		return q.Completeness
	case CriterionTimeliness:
		return q.Timeliness
	default:
		return 0
	}
}
