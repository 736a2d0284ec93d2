// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package capability defines the single opaque interface through which
// workflow stages reach external operations: model generation, web search,
// file writes. The stage executor depends only on this interface, never on
// a concrete provider; new external services are added by extending the
// operation kind set.
package capability

import (
	"context"
	"errors"
	"fmt"
)

// Kind tags the external operation a stage delegates to.
type Kind string

const (
	KindModelGenerate Kind = "model-generate"
	KindWebSearch     Kind = "web-search"
	KindFileWrite     Kind = "file-write"
)

// ErrCapability marks transient provider failures. The stage executor
// retries these up to the stage's limit.
var ErrCapability = errors.New("capability error")

// Error wraps a provider failure with the operation kind that produced it.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return ErrCapability }

// Errorf builds a transient capability error for the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Request is one capability invocation.
type Request struct {
	// Kind selects the external operation.
	Kind Kind `json:"kind" yaml:"kind"`

	// Stage names the invoking stage, for logging and scripted replay.
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Params carries operation-specific parameters (query, prompt,
	// filename, and so on).
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Source is one search hit returned by a web-search invocation.
type Source struct {
	Title   string   `json:"title" yaml:"title"`
	URL     string   `json:"url" yaml:"url"`
	Snippet string   `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
}

// Response is the result of one capability invocation. Which fields are
// populated depends on the request kind: Text for model-generate, Sources
// for web-search, Path for file-write.
type Response struct {
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
}

// Provider executes capability requests. Implementations must honor the
// request context's deadline; the executor bounds every invocation with
// the stage timeout.
type Provider interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context, req Request) (Response, error)

// Invoke implements Provider.
func (f Func) Invoke(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// StringParam extracts a string parameter, or "" when absent.
func StringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// IntParam extracts an integer parameter, or def when absent.
func IntParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
