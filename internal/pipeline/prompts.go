// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ErrOptions reports run options outside the supported enumerations.
var ErrOptions = errors.New("invalid run options")

// formatTitles maps each output format to its document title prefix.
var formatTitles = map[string]string{
	"comprehensive_report": "Research Report",
	"executive_briefing":   "Executive Briefing",
	"presentation":         "Presentation Outline",
	"technical_summary":    "Technical Summary",
	"policy_brief":         "Policy Brief",
}

var audiences = map[string]bool{
	"academic":     true,
	"professional": true,
	"executive":    true,
	"technical":    true,
	"general":      true,
}

// depthPlan controls how wide the research stage fans out and how many
// merged results it keeps.
type depthPlan struct {
	queries    int
	maxResults int
}

var depthPlans = map[string]depthPlan{
	"overview":      {queries: 1, maxResults: 5},
	"detailed":      {queries: 2, maxResults: 8},
	"comprehensive": {queries: 3, maxResults: 10},
	"expert":        {queries: 4, maxResults: 12},
}

// querySuffixes are appended to the base query to derive the fan-out
// queries, in depth order.
var querySuffixes = []string{
	"",
	"latest developments",
	"research evidence",
	"case studies",
}

// normalizeOptions fills defaults and validates the enumerated options.
// The citation style is validated separately by workflow construction.
func normalizeOptions(opts types.RunOptions) (types.RunOptions, error) {
	if opts.Format == "" {
		opts.Format = "comprehensive_report"
	}
	if opts.Audience == "" {
		opts.Audience = "general"
	}
	if opts.Depth == "" {
		opts.Depth = "detailed"
	}
	if opts.Style == "" {
		opts.Style = "APA"
	}

	if _, ok := formatTitles[opts.Format]; !ok {
		return opts, fmt.Errorf("%w: unknown format %q", ErrOptions, opts.Format)
	}
	if !audiences[opts.Audience] {
		return opts, fmt.Errorf("%w: unknown audience %q", ErrOptions, opts.Audience)
	}
	if _, ok := depthPlans[opts.Depth]; !ok {
		return opts, fmt.Errorf("%w: unknown depth %q", ErrOptions, opts.Depth)
	}
	return opts, nil
}

// deriveQueries expands the base query into the fan-out set for the given
// depth.
func deriveQueries(query, depth string) []string {
	plan := depthPlans[depth]
	out := make([]string, 0, plan.queries)
	for i := 0; i < plan.queries && i < len(querySuffixes); i++ {
		q := query
		if querySuffixes[i] != "" {
			q = query + " " + querySuffixes[i]
		}
		out = append(out, q)
	}
	return out
}

// documentTitle builds the final document title for a format and query.
func documentTitle(format, query string) string {
	prefix := formatTitles[format]
	if prefix == "" {
		prefix = "Research Report"
	}
	return prefix + ": " + titleCase(query)
}

// titleCase uppercases the first letter of each word, leaving short
// connectives alone past the first word.
func titleCase(s string) string {
	small := map[string]bool{"a": true, "an": true, "and": true, "in": true, "of": true, "on": true, "the": true, "to": true}
	words := strings.Fields(s)
	for i, w := range words {
		if i > 0 && small[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
			continue
		}
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
