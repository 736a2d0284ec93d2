// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// ErrUnknownRun reports a run id the runner has never seen.
var ErrUnknownRun = errors.New("unknown run")

// RunFactory builds a fresh workflow, initial context, and provider for
// each run, so runs never share mutable state.
type RunFactory interface {
	NewRun(runID, query string, opts types.RunOptions) (*Workflow, map[string]any, capability.Provider, error)
}

// Runner starts workflow runs and tracks them to completion. Each run
// executes in its own goroutine with its own workflow instance; the
// runner itself only holds bookkeeping.
type Runner struct {
	factory RunFactory
	logger  *zap.Logger

	mu   sync.Mutex
	runs map[string]*runHandle
}

type runHandle struct {
	state  types.RunState
	cancel context.CancelFunc
	done   chan struct{}
	result *types.WorkflowResult
}

// NewRunner returns a runner that builds runs through factory.
func NewRunner(factory RunFactory, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		factory: factory,
		logger:  logger.With(zap.String("component", "runner")),
		runs:    make(map[string]*runHandle),
	}
}

// StartRun validates the request, assigns a run id, and launches the run
// asynchronously. The returned id can be polled with Result or awaited
// with Wait.
func (r *Runner) StartRun(ctx context.Context, query string, opts types.RunOptions) (string, error) {
	runID := uuid.NewString()

	wf, initial, provider, err := r.factory.NewRun(runID, query, opts)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := &runHandle{
		state:  types.RunPending,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.runs[runID] = handle
	r.mu.Unlock()

	r.logger.Info("run accepted",
		zap.String("run_id", runID),
		zap.String("query", query),
	)

	go func() {
		defer cancel()

		r.mu.Lock()
		handle.state = types.RunRunning
		r.mu.Unlock()

		result := wf.Run(runCtx, RunSpec{
			RunID:   runID,
			Query:   query,
			Options: opts,
			Initial: initial,
		}, provider)

		r.mu.Lock()
		handle.state = result.State
		handle.result = &result
		r.mu.Unlock()
		close(handle.done)
	}()

	return runID, nil
}

// Result returns the run's result when it has reached a terminal state.
// For runs still in flight it returns a nil result and the current state.
func (r *Runner) Result(runID string) (*types.WorkflowResult, types.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle, ok := r.runs[runID]
	if !ok {
		return nil, "", ErrUnknownRun
	}
	return handle.result, handle.state, nil
}

// Wait blocks until the run finishes or ctx expires, then returns the
// result.
func (r *Runner) Wait(ctx context.Context, runID string) (*types.WorkflowResult, error) {
	r.mu.Lock()
	handle, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrUnknownRun
	}

	select {
	case <-handle.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return handle.result, nil
}

// Cancel requests cancellation of an in-flight run. The run still settles
// into a terminal state through its own goroutine.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	handle, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return ErrUnknownRun
	}
	handle.cancel()
	return nil
}
