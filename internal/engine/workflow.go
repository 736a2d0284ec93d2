// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/internal/citation"
	"github.com/pdiddy/research-assistant/internal/quality"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Workflow is an ordered sequence of stages validated at construction: by
// the time Run is called, every stage's inputs are known to be satisfiable
// by earlier stages or the initial context.
type Workflow struct {
	stages    []Stage
	scorer    *quality.Scorer
	citations *citation.Store
	style     citation.Style
	executor  *Executor
	logger    *zap.Logger
}

// WorkflowOptions carry the collaborators a workflow needs beyond its
// stage list.
type WorkflowOptions struct {
	// Scorer evaluates stage content. Required.
	Scorer *quality.Scorer

	// Citations is the run's citation store. Required.
	Citations *citation.Store

	// Style selects the bibliography format. Defaults to APA.
	Style citation.Style

	// Logger receives run progress. Defaults to a no-op logger.
	Logger *zap.Logger

	// Executor runs individual stages. Defaults to a fresh executor
	// sharing the workflow logger.
	Executor *Executor
}

// NewWorkflow validates the stage graph and returns a runnable workflow.
// initialKeys are the context keys seeded before the first stage. Any
// stage input not covered by initialKeys or an earlier stage's outputs,
// any duplicate stage name, and any output declared by two stages all
// fail construction with ErrDependency.
func NewWorkflow(stages []Stage, initialKeys []string, opts WorkflowOptions) (*Workflow, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: no stages", ErrDependency)
	}
	if opts.Scorer == nil {
		return nil, fmt.Errorf("%w: no scorer", ErrDependency)
	}
	if opts.Citations == nil {
		return nil, fmt.Errorf("%w: no citation store", ErrDependency)
	}
	if opts.Style == "" {
		opts.Style = citation.StyleAPA
	} else if st, err := citation.ParseStyle(string(opts.Style)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependency, err)
	} else {
		opts.Style = st
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Executor == nil {
		opts.Executor = NewExecutor(opts.Logger)
	}

	available := make(map[string]bool, len(initialKeys))
	for _, k := range initialKeys {
		available[k] = true
	}
	seenStage := make(map[string]bool, len(stages))
	producer := make(map[string]string)
	for _, stage := range stages {
		if stage.Name == "" {
			return nil, fmt.Errorf("%w: unnamed stage", ErrDependency)
		}
		if seenStage[stage.Name] {
			return nil, fmt.Errorf("%w: duplicate stage %q", ErrDependency, stage.Name)
		}
		seenStage[stage.Name] = true
		for _, in := range stage.Inputs {
			if !available[in] {
				return nil, fmt.Errorf("%w: stage %q input %q is not produced by any earlier stage",
					ErrDependency, stage.Name, in)
			}
		}
		for _, out := range stage.Outputs {
			if prev, ok := producer[out]; ok {
				return nil, fmt.Errorf("%w: output %q declared by both %q and %q",
					ErrDependency, out, prev, stage.Name)
			}
			producer[out] = stage.Name
			available[out] = true
		}
	}

	return &Workflow{
		stages:    stages,
		scorer:    opts.Scorer,
		citations: opts.Citations,
		style:     opts.Style,
		executor:  opts.Executor,
		logger:    opts.Logger.With(zap.String("component", "workflow")),
	}, nil
}

// RunSpec identifies one execution of a workflow.
type RunSpec struct {
	RunID   string
	Query   string
	Options types.RunOptions
	Initial map[string]any
}

// Run executes the stages in order and assembles the final result. A
// critical stage failure aborts the run and marks the remaining stages
// skipped; a non-critical failure is recorded and execution continues.
// Cancellation is honored between stages.
func (w *Workflow) Run(ctx context.Context, spec RunSpec, provider capability.Provider) types.WorkflowResult {
	start := time.Now()
	result := types.WorkflowResult{
		RunID:     spec.RunID,
		Query:     spec.Query,
		Options:   spec.Options,
		State:     types.RunRunning,
		Scores:    make(map[string]types.QualityScore),
		StartedAt: start,
	}
	wfctx := NewContext(spec.Initial)

	w.logger.Info("run started",
		zap.String("run_id", spec.RunID),
		zap.String("query", spec.Query),
		zap.Int("stages", len(w.stages)),
	)

	aborted := false
	anyFailed := false
	for i, stage := range w.stages {
		if aborted {
			result.Stages = append(result.Stages, types.StageResult{
				Name:   stage.Name,
				Status: types.StageSkipped,
			})
			continue
		}
		if err := ctx.Err(); err != nil {
			w.logger.Warn("run cancelled",
				zap.String("run_id", spec.RunID),
				zap.String("before_stage", stage.Name),
			)
			result.ErrorLog = append(result.ErrorLog, types.ErrorRecord{
				Stage:   stage.Name,
				Message: fmt.Sprintf("run cancelled: %v", err),
			})
			aborted = true
			anyFailed = true
			result.Stages = append(result.Stages, types.StageResult{
				Name:   stage.Name,
				Status: types.StageSkipped,
			})
			continue
		}

		w.logger.Info("stage starting",
			zap.String("run_id", spec.RunID),
			zap.String("stage", stage.Name),
			zap.Int("position", i+1),
		)
		outcome := w.executor.Run(ctx, stage, wfctx, provider)

		sr := types.StageResult{
			Name:     stage.Name,
			Status:   outcome.Status,
			Attempts: outcome.Attempts,
			Elapsed:  outcome.Elapsed,
			Payload:  outcome.Payload,
		}
		if outcome.Err != nil {
			sr.Error = outcome.Err.Error()
		}
		result.Stages = append(result.Stages, sr)

		if outcome.Status == types.StageFailed {
			anyFailed = true
			result.ErrorLog = append(result.ErrorLog, types.ErrorRecord{
				Stage:    stage.Name,
				Message:  outcome.Err.Error(),
				Attempts: outcome.Attempts,
			})
			if stage.Critical {
				w.logger.Error("critical stage failed, aborting run",
					zap.String("run_id", spec.RunID),
					zap.String("stage", stage.Name),
				)
				aborted = true
			}
			continue
		}

		if stage.ContentKey != "" {
			if content, ok := outcome.Payload[stage.ContentKey].(string); ok {
				result.Scores[stage.Name] = w.score(stage.Name, content, spec.Options)
			}
		}
	}

	switch {
	case aborted:
		result.State = types.RunFailed
	case anyFailed:
		result.State = types.RunPartiallyCompleted
	default:
		result.State = types.RunCompleted
	}

	if doc, ok := wfctx.Get("document"); ok {
		if s, ok := doc.(string); ok {
			result.Document = s
		}
	}
	bib, err := w.citations.Bibliography(string(w.style))
	if err != nil {
		// Unreachable: the style was validated at construction.
		w.logger.Error("bibliography render failed", zap.Error(err))
	}
	result.Bibliography = bib
	result.CitationCount = w.citations.Count()
	result.Elapsed = time.Since(start)

	w.logger.Info("run finished",
		zap.String("run_id", spec.RunID),
		zap.String("state", string(result.State)),
		zap.Duration("elapsed", result.Elapsed),
		zap.Int("citations", result.CitationCount),
	)
	return result
}

// score evaluates one stage's content, feeding the scorer the citation
// store's source URLs and the requested audience as hints.
func (w *Workflow) score(stage, content string, opts types.RunOptions) types.QualityScore {
	var urls []string
	for _, c := range w.citations.Citations() {
		if c.URL != "" {
			urls = append(urls, c.URL)
		}
	}
	score := w.scorer.Evaluate(content, quality.Hints{
		SourceURLs: urls,
		Audience:   opts.Audience,
	})
	w.logger.Info("stage scored",
		zap.String("stage", stage),
		zap.Float64("aggregate", score.Aggregate),
		zap.Int("suggestions", len(score.Suggestions)),
	)
	return score
}
