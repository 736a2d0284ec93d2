// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capability

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.yaml.in/yaml/v3"
)

// ScriptEntry is one recorded capability response. Entries with a
// non-empty Error field simulate a transient provider failure.
type ScriptEntry struct {
	Kind    string   `json:"kind" yaml:"kind"`
	Stage   string   `json:"stage,omitempty" yaml:"stage,omitempty"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Script is a recorded sequence of capability responses, grouped by
// operation kind and consumed in order.
type Script struct {
	Responses []ScriptEntry `json:"responses" yaml:"responses"`
}

// Scripted replays a Script: each invocation pops the next entry recorded
// for its kind. Replaying the same script against the same query
// reproduces a run exactly, which is how workflow executions are tested
// deterministically.
type Scripted struct {
	mu     sync.Mutex
	queues map[Kind][]ScriptEntry
}

// NewScripted builds a replay provider from a script.
func NewScripted(script Script) *Scripted {
	queues := make(map[Kind][]ScriptEntry)
	for _, e := range script.Responses {
		k := Kind(e.Kind)
		queues[k] = append(queues[k], e)
	}
	return &Scripted{queues: queues}
}

// LoadScript reads a YAML script file and builds a replay provider.
func LoadScript(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	return NewScripted(script), nil
}

// Invoke pops the next recorded entry for the request's kind. An exhausted
// queue or a recorded error both surface as transient capability errors.
func (s *Scripted) Invoke(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	s.mu.Lock()
	queue := s.queues[req.Kind]
	if len(queue) == 0 {
		s.mu.Unlock()
		return Response{}, Errorf(req.Kind, "script exhausted (stage %s)", req.Stage)
	}
	entry := queue[0]
	s.queues[req.Kind] = queue[1:]
	s.mu.Unlock()

	if entry.Error != "" {
		return Response{}, Errorf(req.Kind, "%s", entry.Error)
	}
	return Response{Text: entry.Text, Sources: entry.Sources, Path: entry.Path}, nil
}
