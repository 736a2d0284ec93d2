// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine implements the workflow orchestration core: the
// run-scoped context, the stage executor with timeout and retry policy,
// the sequencing orchestrator, and the concurrent run manager.
package engine

import "sort"

// Context is the key/value accumulator passed between a run's stages. It
// is owned by one workflow run: stages read their declared inputs from it
// and the executor merges only a stage's declared outputs back, so the
// context always corresponds exactly to the set of stages that succeeded.
// Runs never share a Context.
type Context struct {
	values map[string]any
}

// NewContext builds a context seeded with the initial keys (the query and
// run options).
func NewContext(initial map[string]any) *Context {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Context{values: values}
}

// Get returns the value for key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns the present keys in sorted order.
func (c *Context) Keys() []string {
	out := make([]string, 0, len(c.values))
	for k := range c.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a shallow copy of the current mapping. Stages receive
// snapshots, never the context itself.
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// merge writes the declared subset of outputs into the context. Undeclared
// keys are dropped so a stage can never leak state it did not announce.
func (c *Context) merge(outputs map[string]any, declared []string) {
	for _, k := range declared {
		if v, ok := outputs[k]; ok {
			c.values[k] = v
		}
	}
}
