// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// backoffBase controls the base duration for retry backoff. Tests override
// this to avoid real sleeps.
var backoffBase = time.Second

// Executor runs one workflow stage against a capability provider with
// timeout, retry, and error capture. The retry policy lives here, once,
// parameterized per stage.
type Executor struct {
	logger *zap.Logger
}

// NewExecutor returns an executor logging through the given logger.
func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger.With(zap.String("component", "executor"))}
}

// Run executes one stage. Missing declared inputs fail immediately with
// ErrMissingDependency and no capability call. Transient failures
// (timeouts, capability errors, malformed output) are retried with
// exponential backoff up to the stage's limit. The context is only
// mutated on success, and only with the stage's declared output keys.
func (e *Executor) Run(ctx context.Context, stage Stage, wfctx *Context, provider capability.Provider) StageOutcome {
	start := time.Now()

	for _, in := range stage.Inputs {
		if !wfctx.Has(in) {
			err := fmt.Errorf("%w: stage %q requires %q", ErrMissingDependency, stage.Name, in)
			e.logger.Error("stage input missing",
				zap.String("stage", stage.Name),
				zap.String("input", in),
			)
			return StageOutcome{Status: types.StageFailed, Err: err, Elapsed: time.Since(start)}
		}
	}

	var params map[string]any
	if stage.Prepare != nil {
		params = stage.Prepare(wfctx.Snapshot())
	}
	req := capability.Request{Kind: stage.Kind, Stage: stage.Name, Params: params}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= stage.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			e.logger.Warn("stage attempt failed, retrying",
				zap.String("stage", stage.Name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return StageOutcome{
					Status:   types.StageFailed,
					Err:      ctx.Err(),
					Attempts: attempts,
					Elapsed:  time.Since(start),
				}
			case <-time.After(backoff):
			}
		}

		attempts++
		outputs, err := e.attempt(ctx, stage, provider, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				// The run itself was cancelled; retrying is pointless.
				break
			}
			continue
		}

		wfctx.merge(outputs, stage.Outputs)
		e.logger.Info("stage succeeded",
			zap.String("stage", stage.Name),
			zap.Int("attempts", attempts),
		)
		return StageOutcome{
			Status:   types.StageSucceeded,
			Payload:  outputs,
			Attempts: attempts,
			Elapsed:  time.Since(start),
		}
	}

	e.logger.Error("stage failed",
		zap.String("stage", stage.Name),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	return StageOutcome{
		Status:   types.StageFailed,
		Err:      fmt.Errorf("stage %q failed after %d attempts: %w", stage.Name, attempts, lastErr),
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}
}

// attempt makes a single capability invocation under the stage timeout and
// validates the collected outputs against the stage's declaration.
func (e *Executor) attempt(ctx context.Context, stage Stage, provider capability.Provider, req capability.Request) (map[string]any, error) {
	callCtx := ctx
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}

	resp, err := provider.Invoke(callCtx, req)
	if err != nil {
		return nil, err
	}

	var outputs map[string]any
	if stage.Collect != nil {
		outputs, err = stage.Collect(resp)
		if err != nil {
			return nil, fmt.Errorf("malformed output: %w", err)
		}
	}
	for _, k := range stage.Outputs {
		if _, ok := outputs[k]; !ok {
			return nil, fmt.Errorf("malformed output: declared key %q not produced", k)
		}
	}
	return outputs, nil
}
