// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"regexp"
	"strconv"
	"strings"
)

// Indicator patterns are compiled once; evaluation only reads them.
var (
	credibilityIndicators = compileAll(
		`(?i)peer.?reviewed`,
		`(?i)published in`,
		`(?i)\bjournal\b`,
		`(?i)study shows`,
		`(?i)research indicates`,
		`(?i)according to experts`,
		`(?i)data suggests`,
	)

	biasIndicators = compileAll(
		`(?i)\balways\b`,
		`(?i)\bnever\b`,
		`(?i)everyone knows`,
		`(?i)\bobviously\b`,
		`(?i)without a doubt`,
		`(?i)definitely proves`,
	)

	quantitativePattern = regexp.MustCompile(`(?i)\d+%|\d+\.\d+|statistics|\bdata\b|findings`)

	yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

	citationIndicators = compileAll(
		`\[\d+\]`,
		`\(\d{4}\)`,
		`(?i)et al\.`,
		`(?i)according to`,
		`(?i)source:`,
		`(?i)reference:`,
		`(?i)study by`,
	)

	factualIndicators = compileAll(
		`(?i)research shows`,
		`(?i)data indicates`,
		`(?i)study found`,
		`(?i)analysis reveals`,
		`(?i)evidence suggests`,
	)

	structureIndicators = compileAll(
		`(?i)introduction`,
		`(?i)conclusion`,
		`(?i)methodology`,
		`(?i)\bresults\b`,
		`(?i)discussion`,
		`(?i)background`,
		`(?i)summary`,
	)

	recencyIndicators = compileAll(
		`(?i)\brecent\b`,
		`(?i)\blatest\b`,
		`(?i)\bcurrent\b`,
		`(?i)\bupdated\b`,
		`(?i)\bnew\b`,
		`(?i)this year`,
		`(?i)recently`,
		`(?i)\bnow\b`,
	)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// countMatching returns how many of the patterns occur in content at least
// once.
func countMatching(patterns []*regexp.Regexp, content string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(content) {
			n++
		}
	}
	return n
}

// credibility scores source trustworthiness: authoritative source domains
// and scholarly language raise it, absolutist language lowers it.
func (s *Scorer) credibility(content string, hints Hints) float64 {
	score := 5.0

	authoritative, generalWeb := false, false
	for _, u := range hints.SourceURLs {
		lower := strings.ToLower(u)
		switch {
		case strings.Contains(lower, ".edu") || strings.Contains(lower, ".gov") || strings.Contains(lower, ".org"):
			authoritative = true
		case strings.Contains(lower, ".com") || strings.Contains(lower, ".net"):
			generalWeb = true
		}
	}
	switch {
	case authoritative:
		score += 2.0
	case generalWeb:
		score += 0.5
	}

	score += 0.3 * float64(countMatching(credibilityIndicators, content))
	score -= 0.2 * float64(countMatching(biasIndicators, content))

	return clamp(score)
}

// relevance scores specificity: quantitative detail, recent years, adequate
// length, and explicit address of the declared audience.
func (s *Scorer) relevance(content string, hints Hints) float64 {
	score := 5.0

	if quantitativePattern.MatchString(content) {
		score += 1.5
	}

	for _, y := range yearsIn(content) {
		if y >= s.refYear-2 {
			score += 1.0
			break
		}
	}

	switch wc := wordCount(content); {
	case wc > 500:
		score += 1.0
	case wc < 100:
		score -= 1.0
	}

	if hints.Audience != "" && strings.Contains(strings.ToLower(content), strings.ToLower(hints.Audience)) {
		score += 0.5
	}

	return clamp(score)
}

// accuracy scores support for claims: citation density and factual phrasing.
func (s *Scorer) accuracy(content string) float64 {
	score := 6.0

	citations := 0
	for _, p := range citationIndicators {
		citations += len(p.FindAllString(content, -1))
	}
	switch {
	case citations > 5:
		score += 2.0
	case citations > 2:
		score += 1.0
	}

	score += 0.3 * float64(countMatching(factualIndicators, content))

	return clamp(score)
}

// completeness scores coverage: length and conventional document structure.
func (s *Scorer) completeness(content string) float64 {
	score := 5.0

	switch wc := wordCount(content); {
	case wc > 1000:
		score += 2.0
	case wc > 500:
		score += 1.0
	case wc < 100:
		score -= 2.0
	}

	score += 0.5 * float64(countMatching(structureIndicators, content))

	return clamp(score)
}

// timeliness scores currency relative to the scorer's reference year.
func (s *Scorer) timeliness(content string) float64 {
	score := 5.0

	if years := yearsIn(content); len(years) > 0 {
		mostRecent := years[0]
		for _, y := range years[1:] {
			if y > mostRecent {
				mostRecent = y
			}
		}
		switch age := s.refYear - mostRecent; {
		case age <= 1:
			score += 3.0
		case age <= 3:
			score += 1.0
		case age <= 5:
			// Neutral.
		default:
			score -= 2.0
		}
	}

	score += 0.2 * float64(countMatching(recencyIndicators, content))

	return clamp(score)
}

func yearsIn(content string) []int {
	var out []int
	for _, m := range yearPattern.FindAllString(content, -1) {
		if y, err := strconv.Atoi(m); err == nil {
			out = append(out, y)
		}
	}
	return out
}

func wordCount(content string) int {
	return len(strings.Fields(content))
}
