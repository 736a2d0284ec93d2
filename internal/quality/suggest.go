// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import "github.com/pdiddy/research-assistant/pkg/types"

// lowBand is the boundary below which the stronger suggestion applies.
const lowBand = 4.0

// suggestionTable maps each criterion to its [low band, mid band]
// suggestions. Fixed so suggestion output is deterministic.
var suggestionTable = map[types.Criterion][2]string{
	types.CriterionCredibility: {
		"add authoritative sources",
		"diversify source types",
	},
	types.CriterionRelevance: {
		"refocus the content on the research question",
		"add specific, actionable detail",
	},
	types.CriterionAccuracy: {
		"add citations supporting key claims",
		"cite sources for quantitative statements",
	},
	types.CriterionCompleteness: {
		"expand coverage of the topic",
		"add structure: introduction, findings, conclusion",
	},
	types.CriterionTimeliness: {
		"replace outdated sources with current material",
		"add recent developments and dates",
	},
}

// SuggestImprovements returns one targeted suggestion for every criterion
// scoring below the threshold, in canonical criterion order. Scores below
// the low band draw the stronger suggestion.
func (s *Scorer) SuggestImprovements(score types.QualityScore) []string {
	var out []string
	for _, c := range types.Criteria {
		v := score.ByCriterion(c)
		if v >= s.threshold {
			continue
		}
		pair := suggestionTable[c]
		if v < lowBand {
			out = append(out, pair[0])
		} else {
			out = append(out, pair[1])
		}
	}
	return out
}
