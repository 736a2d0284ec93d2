// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StorageConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(runID string, state types.RunState, startedAt time.Time) types.WorkflowResult {
	return types.WorkflowResult{
		RunID: runID,
		Query: "AI in medicine",
		State: state,
		Stages: []types.StageResult{
			{Name: "research", Status: types.StageSucceeded, Attempts: 1},
		},
		Scores: map[string]types.QualityScore{
			"content": {Aggregate: 7.5},
		},
		CitationCount: 3,
		Document:      "# Research Report\n",
		StartedAt:     startedAt,
		Elapsed:       90 * time.Second,
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	result := sampleResult("run-1", types.RunCompleted, started)
	require.NoError(t, s.Save(ctx, result, "/out/research-run-1.md"))

	got, path, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "/out/research-run-1.md", path)
	assert.Equal(t, result.RunID, got.RunID)
	assert.Equal(t, result.Query, got.Query)
	assert.Equal(t, result.State, got.State)
	assert.Equal(t, result.CitationCount, got.CitationCount)
	assert.Equal(t, result.Document, got.Document)
	assert.Len(t, got.Stages, 1)
	assert.Equal(t, 7.5, got.Scores["content"].Aggregate)
}

func TestSaveRejectsNonTerminalRun(t *testing.T) {
	s := openTestStore(t)
	result := sampleResult("run-1", types.RunRunning, time.Now())
	err := s.Save(context.Background(), result, "")
	require.Error(t, err)
}

func TestSaveReplacesExistingRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Now().UTC()

	require.NoError(t, s.Save(ctx, sampleResult("run-1", types.RunFailed, started), ""))
	require.NoError(t, s.Save(ctx, sampleResult("run-1", types.RunCompleted, started), "/out/doc.md"))

	got, path, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunCompleted, got.State)
	assert.Equal(t, "/out/doc.md", path)

	runs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGetUnknownRun(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleResult("run-old", types.RunCompleted, base), ""))
	require.NoError(t, s.Save(ctx, sampleResult("run-new", types.RunCompleted, base.Add(time.Hour)), ""))

	runs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-old", runs[1].RunID)
	assert.Equal(t, types.RunCompleted, runs[0].State)
	assert.Equal(t, 3, runs[0].Citations)
	assert.Equal(t, 90*time.Second, runs[0].Elapsed)
}
