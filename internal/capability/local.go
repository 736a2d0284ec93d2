// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Local is the default provider: live DuckDuckGo search for web-search,
// a deterministic offline drafter for model-generate, and direct
// filesystem writes for file-write. The drafter is a heuristic stand-in
// that lets the pipeline run end to end without a language-model account;
// a hosted model is plugged in by supplying another Provider.
type Local struct {
	searcher   searchBackend
	outputDir  string
	maxResults int
	logger     *zap.Logger
}

// searchBackend lets tests substitute the live searcher.
type searchBackend interface {
	Search(ctx context.Context, query string) ([]Source, error)
}

// NewLocal builds the default provider from configuration.
func NewLocal(cfg types.Config, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxResults := cfg.Search.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Local{
		searcher:   NewWebSearcher(cfg.Search),
		outputDir:  cfg.Output.Dir,
		maxResults: maxResults,
		logger:     logger.With(zap.String("component", "capability")),
	}
}

// Invoke dispatches on the request kind.
func (l *Local) Invoke(ctx context.Context, req Request) (Response, error) {
	l.logger.Debug("invoking capability",
		zap.String("kind", string(req.Kind)),
		zap.String("stage", req.Stage),
	)

	switch req.Kind {
	case KindWebSearch:
		return l.search(ctx, req)
	case KindModelGenerate:
		return l.generate(req)
	case KindFileWrite:
		return l.writeFile(req)
	default:
		return Response{}, Errorf(req.Kind, "unsupported operation kind")
	}
}

// search fans the queries out concurrently and joins before returning, so
// the stage outcome is never reported with sub-calls outstanding. Partial
// backend failures degrade to the successful subset; only a total failure
// surfaces as an error.
func (l *Local) search(ctx context.Context, req Request) (Response, error) {
	queries := StringsParam(req.Params, "queries")
	if len(queries) == 0 {
		if q := StringParam(req.Params, "query"); q != "" {
			queries = []string{q}
		}
	}
	if len(queries) == 0 {
		return Response{}, Errorf(KindWebSearch, "no query provided")
	}

	type queryResult struct {
		index   int
		sources []Source
		err     error
	}

	ch := make(chan queryResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			sources, err := l.searcher.Search(ctx, q)
			ch <- queryResult{index: i, sources: sources, err: err}
		}(i, q)
	}
	wg.Wait()
	close(ch)

	byIndex := make([][]Source, len(queries))
	var firstErr error
	failures := 0
	for qr := range ch {
		if qr.err != nil {
			failures++
			if firstErr == nil {
				firstErr = qr.err
			}
			l.logger.Warn("search query failed",
				zap.String("stage", req.Stage),
				zap.Error(qr.err),
			)
			continue
		}
		byIndex[qr.index] = qr.sources
	}
	if failures == len(queries) {
		return Response{}, Errorf(KindWebSearch, "all %d queries failed: %v", len(queries), firstErr)
	}

	// Merge in query order so output is stable, deduplicating by URL.
	seen := make(map[string]bool)
	var merged []Source
	for _, sources := range byIndex {
		for _, s := range sources {
			if seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			merged = append(merged, s)
		}
	}
	if len(merged) > l.maxResults {
		merged = merged[:l.maxResults]
	}
	return Response{Sources: merged}, nil
}

// generate produces deterministic draft text from the structured
// parameters. Same parameters, same text.
func (l *Local) generate(req Request) (Response, error) {
	mode := StringParam(req.Params, "mode")
	query := StringParam(req.Params, "query")

	switch mode {
	case "analysis":
		return Response{Text: draftAnalysis(query, StringParam(req.Params, "findings"))}, nil
	case "content":
		return Response{Text: draftContent(
			query,
			StringParam(req.Params, "findings"),
			StringParam(req.Params, "insights"),
			StringParam(req.Params, "audience"),
		)}, nil
	default:
		return Response{}, Errorf(KindModelGenerate, "unknown generation mode %q", mode)
	}
}

// writeFile persists content under the configured output directory.
func (l *Local) writeFile(req Request) (Response, error) {
	name := StringParam(req.Params, "filename")
	if name == "" {
		return Response{}, Errorf(KindFileWrite, "no filename provided")
	}
	content := StringParam(req.Params, "content")

	if err := os.MkdirAll(l.outputDir, 0o755); err != nil {
		return Response{}, Errorf(KindFileWrite, "creating output directory: %v", err)
	}
	path := filepath.Join(l.outputDir, filepath.Base(name))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Response{}, Errorf(KindFileWrite, "writing %s: %v", path, err)
	}
	return Response{Path: path}, nil
}

// draftAnalysis writes an insight summary over the research findings.
func draftAnalysis(query, findings string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of findings for: %s\n\n", query)
	b.WriteString("Summary\n\n")
	b.WriteString("The research indicates several recurring themes across the gathered sources. ")
	b.WriteString("Evidence suggests the following points deserve attention:\n\n")
	for i, line := range headlines(findings, 5) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	b.WriteString("\nImplications\n\n")
	b.WriteString("Data suggests the trends above are consistent with the source material. ")
	b.WriteString("Gaps remain where sources disagree or coverage is thin; these are flagged ")
	b.WriteString("for follow-up in the recommendations.\n")
	return b.String()
}

// draftContent assembles the body of the final document from the research
// findings and the analysis.
func draftContent(query, findings, insights, audience string) string {
	var b strings.Builder
	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This report addresses the question: %s. ", query)
	if audience != "" {
		fmt.Fprintf(&b, "It is prepared for a %s audience. ", audience)
	}
	b.WriteString("Findings, analysis, and recommendations follow.\n\n")

	b.WriteString("## Findings\n\n")
	b.WriteString(strings.TrimSpace(findings))
	b.WriteString("\n\n## Analysis\n\n")
	b.WriteString(strings.TrimSpace(insights))

	b.WriteString("\n\n## Conclusion\n\n")
	b.WriteString("The sources reviewed provide a consistent background for the question. ")
	b.WriteString("Research shows the findings above hold across the cited material; the ")
	b.WriteString("bibliography lists every source consulted.\n")
	return b.String()
}

// headlines extracts up to n non-empty lines from text, trimming markers.
func headlines(text string, n int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= n {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "No findings were gathered.")
	}
	return out
}

// StringsParam extracts a string-slice parameter, accepting []string or
// []any (the shape YAML and JSON decoding produce).
func StringsParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
