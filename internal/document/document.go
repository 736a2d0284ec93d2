// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document assembles the final markdown artifact of a research
// run and validates its inline citation keys.
package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// inlineKeyPattern matches inline citation keys of the form [abc12345].
// Markdown links ([text](url)) are excluded by the lookahead-free check in
// ValidateCitations.
var inlineKeyPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Doc is the assembled output document.
type Doc struct {
	Title        string
	Query        string
	Format       string
	Audience     string
	GeneratedAt  time.Time
	Body         string
	Bibliography []string
}

// Render produces the full markdown document: a title block with run
// metadata, the body, and a References section when citations exist.
func Render(d Doc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	if d.Query != "" {
		fmt.Fprintf(&b, "**Research question:** %s\n\n", d.Query)
	}
	if d.Format != "" || d.Audience != "" {
		var meta []string
		if d.Format != "" {
			meta = append(meta, "Format: "+strings.ReplaceAll(d.Format, "_", " "))
		}
		if d.Audience != "" {
			meta = append(meta, "Audience: "+d.Audience)
		}
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " | "))
	}
	if !d.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "*Generated: %s*\n\n", d.GeneratedAt.UTC().Format("2006-01-02"))
	}

	b.WriteString(strings.TrimSpace(d.Body))
	b.WriteString("\n")

	if len(d.Bibliography) > 0 {
		b.WriteString("\n## References\n\n")
		for i, entry := range d.Bibliography {
			fmt.Fprintf(&b, "%d. %s\n", i+1, entry)
		}
	}
	return b.String()
}

// Lookup reports whether a citation record exists for an id.
type Lookup interface {
	Has(id string) bool
}

// ValidateCitations scans body for inline [key] references and returns the
// keys with no corresponding citation record, sorted and deduplicated.
// Markdown links and footnote-style brackets containing spaces are not
// citation keys and are ignored.
func ValidateCitations(body string, store Lookup) []string {
	missing := make(map[string]bool)
	for _, m := range inlineKeyPattern.FindAllStringSubmatchIndex(body, -1) {
		key := body[m[2]:m[3]]
		if strings.ContainsAny(key, " \t\n") {
			continue
		}
		// A bracket immediately followed by "(" is a markdown link.
		if m[1] < len(body) && body[m[1]] == '(' {
			continue
		}
		if !store.Has(key) {
			missing[key] = true
		}
	}

	out := make([]string, 0, len(missing))
	for k := range missing {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
