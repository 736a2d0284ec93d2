// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline defines the research workflow: a research stage that
// searches the web and records citations, an analysis stage and a content
// stage that draft against the accumulated context, and a publish stage
// that writes the final document to disk.
package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/internal/citation"
	"github.com/pdiddy/research-assistant/internal/document"
	"github.com/pdiddy/research-assistant/internal/engine"
	"github.com/pdiddy/research-assistant/internal/quality"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Default per-stage policies, overridable through config.
var defaultStageConfigs = map[string]types.StageConfig{
	"research": {Timeout: 60 * time.Second, MaxRetries: 2, Critical: true},
	"analysis": {Timeout: 90 * time.Second, MaxRetries: 2, Critical: true},
	"content":  {Timeout: 120 * time.Second, MaxRetries: 2, Critical: true},
	"publish":  {Timeout: 30 * time.Second, MaxRetries: 1, Critical: false},
}

// Factory builds one isolated workflow per run: its own citation store
// and context, sharing only the provider and configuration. It implements
// engine.RunFactory.
type Factory struct {
	cfg      types.Config
	provider capability.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewFactory returns a run factory using the given provider for every
// run's capability calls.
func NewFactory(cfg types.Config, provider capability.Provider, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, provider: provider, logger: logger, now: time.Now}
}

// NewRun validates the options and assembles the four-stage workflow.
func (f *Factory) NewRun(runID, query string, opts types.RunOptions) (*engine.Workflow, map[string]any, capability.Provider, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, nil, fmt.Errorf("%w: empty query", ErrOptions)
	}
	opts, err := normalizeOptions(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	style, err := citation.ParseStyle(opts.Style)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrOptions, err)
	}

	scorer, err := quality.NewScorer(f.cfg.Scoring)
	if err != nil {
		return nil, nil, nil, err
	}
	store := citation.NewStore()

	stages := []engine.Stage{
		f.researchStage(store, query, opts),
		f.analysisStage(query),
		f.contentStage(store, query, opts, style),
		f.publishStage(runID),
	}
	initial := map[string]any{
		"query":    query,
		"format":   opts.Format,
		"audience": opts.Audience,
		"depth":    opts.Depth,
	}

	wf, err := engine.NewWorkflow(stages, []string{"query", "format", "audience", "depth"}, engine.WorkflowOptions{
		Scorer:    scorer,
		Citations: store,
		Style:     style,
		Logger:    f.logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return wf, initial, f.provider, nil
}

// researchStage searches the web for the derived query set and records
// each used source as a citation.
func (f *Factory) researchStage(store *citation.Store, query string, opts types.RunOptions) engine.Stage {
	cfg := f.cfg.StageOrDefault("research", defaultStageConfigs["research"])
	plan := depthPlans[opts.Depth]

	return engine.Stage{
		Name:       "research",
		Kind:       capability.KindWebSearch,
		Inputs:     []string{"query", "depth"},
		Outputs:    []string{"findings", "sources"},
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Critical:   cfg.Critical,
		ContentKey: "findings",
		Prepare: func(snapshot map[string]any) map[string]any {
			return map[string]any{
				"queries":     deriveQueries(query, opts.Depth),
				"max_results": plan.maxResults,
			}
		},
		Collect: func(resp capability.Response) (map[string]any, error) {
			if len(resp.Sources) == 0 {
				return nil, fmt.Errorf("search returned no sources")
			}
			sources := resp.Sources
			if len(sources) > plan.maxResults {
				sources = sources[:plan.maxResults]
			}

			// Stage every citation before touching the store: a failed
			// attempt must leave no records behind, or a retried attempt
			// would re-add its sources under fresh ids.
			accessed := f.now().UTC().Format("2006-01-02")
			staged := make([]types.Citation, 0, len(sources))
			for _, src := range sources {
				if strings.TrimSpace(src.Title) == "" {
					return nil, fmt.Errorf("source %q has no title", src.URL)
				}
				staged = append(staged, sourceCitation(src, accessed))
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Findings for: %s\n\n", query)
			for i, c := range staged {
				id, err := store.Add(c)
				if err != nil {
					return nil, fmt.Errorf("recording citation for %q: %w", c.Title, err)
				}
				fmt.Fprintf(&b, "- %s [%s]", c.Title, id)
				if snippet := strings.TrimSpace(sources[i].Snippet); snippet != "" {
					fmt.Fprintf(&b, ": %s", snippet)
				}
				b.WriteString("\n")
			}
			return map[string]any{
				"findings": b.String(),
				"sources":  sources,
			}, nil
		},
	}
}

// analysisStage drafts insights over the research findings.
func (f *Factory) analysisStage(query string) engine.Stage {
	cfg := f.cfg.StageOrDefault("analysis", defaultStageConfigs["analysis"])

	return engine.Stage{
		Name:       "analysis",
		Kind:       capability.KindModelGenerate,
		Inputs:     []string{"query", "findings"},
		Outputs:    []string{"insights"},
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Critical:   cfg.Critical,
		ContentKey: "insights",
		Prepare: func(snapshot map[string]any) map[string]any {
			return map[string]any{
				"mode":     "analysis",
				"query":    query,
				"findings": snapshot["findings"],
			}
		},
		Collect: func(resp capability.Response) (map[string]any, error) {
			if strings.TrimSpace(resp.Text) == "" {
				return nil, fmt.Errorf("empty analysis text")
			}
			return map[string]any{"insights": resp.Text}, nil
		},
	}
}

// contentStage drafts the document body and assembles the final markdown
// with title block and bibliography.
func (f *Factory) contentStage(store *citation.Store, query string, opts types.RunOptions, style citation.Style) engine.Stage {
	cfg := f.cfg.StageOrDefault("content", defaultStageConfigs["content"])

	return engine.Stage{
		Name:       "content",
		Kind:       capability.KindModelGenerate,
		Inputs:     []string{"query", "findings", "insights", "audience", "format"},
		Outputs:    []string{"document", "unresolved_citations"},
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Critical:   cfg.Critical,
		ContentKey: "document",
		Prepare: func(snapshot map[string]any) map[string]any {
			return map[string]any{
				"mode":     "content",
				"query":    query,
				"findings": snapshot["findings"],
				"insights": snapshot["insights"],
				"audience": opts.Audience,
				"format":   opts.Format,
			}
		},
		Collect: func(resp capability.Response) (map[string]any, error) {
			if strings.TrimSpace(resp.Text) == "" {
				return nil, fmt.Errorf("empty document body")
			}
			missing := document.ValidateCitations(resp.Text, store)
			if len(missing) > 0 {
				f.logger.Warn("document references unknown citation keys",
					zap.Strings("keys", missing),
				)
			}
			bib, err := store.Bibliography(string(style))
			if err != nil {
				return nil, err
			}
			doc := document.Render(document.Doc{
				Title:        documentTitle(opts.Format, query),
				Query:        query,
				Format:       opts.Format,
				Audience:     opts.Audience,
				GeneratedAt:  f.now(),
				Body:         resp.Text,
				Bibliography: bib,
			})
			return map[string]any{
				"document":             doc,
				"unresolved_citations": missing,
			}, nil
		},
	}
}

// publishStage writes the final document under the output directory. It
// is non-critical so a filesystem error still leaves a usable result.
func (f *Factory) publishStage(runID string) engine.Stage {
	cfg := f.cfg.StageOrDefault("publish", defaultStageConfigs["publish"])

	return engine.Stage{
		Name:       "publish",
		Kind:       capability.KindFileWrite,
		Inputs:     []string{"document"},
		Outputs:    []string{"artifact_path"},
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Critical:   cfg.Critical,
		Prepare: func(snapshot map[string]any) map[string]any {
			return map[string]any{
				"filename": "research-" + runID + ".md",
				"content":  snapshot["document"],
			}
		},
		Collect: func(resp capability.Response) (map[string]any, error) {
			if resp.Path == "" {
				return nil, fmt.Errorf("no artifact path returned")
			}
			return map[string]any{"artifact_path": resp.Path}, nil
		},
	}
}

// sourceCitation converts one search result into a citation record. When
// the source names no authors, the site host stands in, which keeps the
// record renderable in every style.
func sourceCitation(src capability.Source, accessed string) types.Citation {
	authors := src.Authors
	if len(authors) == 0 {
		authors = []string{siteName(src.URL)}
	}
	return types.Citation{
		Authors:    authors,
		Title:      src.Title,
		SourceType: types.SourceWeb,
		Year:       src.Year,
		URL:        src.URL,
		Accessed:   accessed,
	}
}

// siteName extracts a readable site name from a URL.
func siteName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
