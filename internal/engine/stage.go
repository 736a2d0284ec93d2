// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"errors"
	"time"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var (
	// ErrDependency reports a stage graph whose declared inputs cannot be
	// satisfied. Raised at workflow construction, before any stage runs.
	ErrDependency = errors.New("invalid stage dependency graph")

	// ErrMissingDependency reports a declared input absent from the
	// context at run time. This indicates a logic bug, so the stage fails
	// immediately without retry.
	ErrMissingDependency = errors.New("missing stage input")
)

// Stage is one ordered unit of work in a workflow, delegating to exactly
// one capability operation.
type Stage struct {
	// Name identifies the stage within its workflow.
	Name string

	// Kind is the capability operation the stage delegates to.
	Kind capability.Kind

	// Inputs are the context keys the stage reads. Each must be produced
	// by an earlier stage or seeded into the initial context.
	Inputs []string

	// Outputs are the context keys the stage writes on success. A
	// successful attempt must produce every declared output.
	Outputs []string

	// Timeout bounds each capability invocation. Zero means no bound.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first failure.
	MaxRetries int

	// Critical aborts the remainder of the run when the stage fails.
	Critical bool

	// Prepare builds the capability parameters from a context snapshot.
	Prepare func(snapshot map[string]any) map[string]any

	// Collect converts a capability response into the stage's declared
	// outputs. A Collect error marks the attempt's output malformed,
	// which is retried like any transient failure.
	Collect func(resp capability.Response) (map[string]any, error)

	// ContentKey names the output holding this stage's content for
	// quality evaluation. Empty for stages that produce no content.
	ContentKey string
}

// StageOutcome is the result of executing one stage.
type StageOutcome struct {
	// Status is succeeded or failed.
	Status types.StageStatus

	// Payload holds the declared outputs. Nil unless the stage succeeded.
	Payload map[string]any

	// Err is the final error for failed stages.
	Err error

	// Attempts counts capability invocations, including retries.
	Attempts int

	// Elapsed is the wall time spent on the stage.
	Elapsed time.Duration
}
