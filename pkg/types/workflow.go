// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StageStatus is the terminal status of one stage within a run.
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// RunState tracks a workflow run through its lifecycle.
type RunState string

const (
	RunPending            RunState = "pending"
	RunRunning            RunState = "running"
	RunCompleted          RunState = "completed"
	RunPartiallyCompleted RunState = "partially_completed"
	RunFailed             RunState = "failed"
)

// Terminal reports whether the state is a terminal run state.
func (s RunState) Terminal() bool {
	switch s {
	case RunCompleted, RunPartiallyCompleted, RunFailed:
		return true
	default:
		return false
	}
}

// RunOptions parameterize a research run.
type RunOptions struct {
	// Format selects the output document shape (e.g. comprehensive_report,
	// executive_briefing, presentation, technical_summary, policy_brief).
	Format string `json:"format" yaml:"format"`

	// Audience is the target readership (academic, professional,
	// executive, technical, general).
	Audience string `json:"audience" yaml:"audience"`

	// Depth is the level of detail (overview, detailed, comprehensive,
	// expert).
	Depth string `json:"depth" yaml:"depth"`

	// Style is the citation style for the bibliography (APA, MLA, Chicago).
	Style string `json:"style" yaml:"style"`
}

// StageResult summarizes one stage's execution inside a WorkflowResult.
type StageResult struct {
	// Name is the stage name.
	Name string `json:"name" yaml:"name"`

	// Status is the terminal status: succeeded, failed, or skipped.
	Status StageStatus `json:"status" yaml:"status"`

	// Attempts counts capability invocations, including retries. Zero for
	// skipped stages.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Elapsed is the wall time spent executing the stage.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Payload holds the stage's declared output keys and values. Nil
	// unless the stage succeeded.
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`

	// Error is the failure message for failed stages.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorRecord is one entry in a run's ordered error log.
type ErrorRecord struct {
	// Stage is the name of the stage that failed.
	Stage string `json:"stage" yaml:"stage"`

	// Message describes the final failure after retries were exhausted.
	Message string `json:"message" yaml:"message"`

	// Attempts counts how many capability invocations were made.
	Attempts int `json:"attempts" yaml:"attempts"`
}

// WorkflowResult is the externally observable artifact of one workflow run.
// It is built once, when the run reaches a terminal state, and is immutable.
// Field names are stable across versions for downstream tooling.
type WorkflowResult struct {
	// RunID identifies the run.
	RunID string `json:"run_id" yaml:"run_id"`

	// Query is the research query the run was started with.
	Query string `json:"query" yaml:"query"`

	// Options are the run options the run was started with.
	Options RunOptions `json:"options" yaml:"options"`

	// State is the terminal run state.
	State RunState `json:"state" yaml:"state"`

	// Stages holds per-stage results in declared stage order.
	Stages []StageResult `json:"stages" yaml:"stages"`

	// Scores maps content-producing stage names to their quality scores.
	Scores map[string]QualityScore `json:"scores,omitempty" yaml:"scores,omitempty"`

	// Bibliography holds the full citation store rendered in the requested
	// style, in bibliographic order.
	Bibliography []string `json:"bibliography,omitempty" yaml:"bibliography,omitempty"`

	// CitationCount is the number of citation records accumulated.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Document is the final rendered document, when the content stage
	// produced one.
	Document string `json:"document,omitempty" yaml:"document,omitempty"`

	// StartedAt is when the run began executing.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Elapsed is the total wall time of the run.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// ErrorLog lists stage failures in the order they occurred.
	ErrorLog []ErrorRecord `json:"error_log,omitempty" yaml:"error_log,omitempty"`
}

// AggregateScore returns the mean of the per-stage aggregate scores, or 0
// when no stage was scored.
func (r *WorkflowResult) AggregateScore() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Scores {
		sum += s.Aggregate
	}
	return sum / float64(len(r.Scores))
}

// RunSummary is one row in the run store listing.
type RunSummary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Query     string        `json:"query" yaml:"query"`
	State     RunState      `json:"state" yaml:"state"`
	Score     float64       `json:"score" yaml:"score"`
	Citations int           `json:"citations" yaml:"citations"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}
