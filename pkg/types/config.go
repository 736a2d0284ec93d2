// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StageConfig holds per-stage execution policy.
type StageConfig struct {
	// Timeout bounds a single capability invocation for the stage.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts after the first failure.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Critical aborts the remainder of the run when the stage fails.
	Critical bool `json:"critical" yaml:"critical"`
}

// Weights holds the per-criterion weights for the aggregate quality score.
// A valid configuration sums to 1.0 within a small epsilon.
type Weights struct {
	Credibility  float64 `json:"credibility" yaml:"credibility"`
	Relevance    float64 `json:"relevance" yaml:"relevance"`
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Timeliness   float64 `json:"timeliness" yaml:"timeliness"`
}

// EqualWeights returns the default configuration: five equal weights
// summing to 1.0.
func EqualWeights() Weights {
	return Weights{
		Credibility:  0.2,
		Relevance:    0.2,
		Accuracy:     0.2,
		Completeness: 0.2,
		Timeliness:   0.2,
	}
}

// Sum returns the total of the five weights.
func (w Weights) Sum() float64 {
	return w.Credibility + w.Relevance + w.Accuracy + w.Completeness + w.Timeliness
}

// ByCriterion returns the weight for the named criterion, or 0 for an
// unknown name.
func (w Weights) ByCriterion(c Criterion) float64 {
	switch c {
	case CriterionCredibility:
		return w.Credibility
	case CriterionRelevance:
		return w.Relevance
	case CriterionAccuracy:
		return w.Accuracy
	case CriterionCompleteness:
		return w.Completeness
	case CriterionTimeliness:
		return w.Timeliness
	default:
		return 0
	}
}

// ScoringConfig holds settings for the quality scorer.
type ScoringConfig struct {
	// Weights are the per-criterion aggregate weights (default equal).
	Weights Weights `json:"weights" yaml:"weights"`

	// Threshold is the score below which a criterion earns an improvement
	// suggestion (default 6.0).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// ReferenceYear anchors timeliness and recency heuristics. Scoring
	// never reads the wall clock, so identical content and hints always
	// produce identical scores.
	ReferenceYear int `json:"reference_year" yaml:"reference_year"`
}

// CitationConfig holds settings for citation rendering.
type CitationConfig struct {
	// Style is the bibliography style: APA, MLA, or Chicago.
	Style string `json:"style" yaml:"style"`
}

// SearchConfig holds settings for the web-search capability.
type SearchConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxResults caps the merged result list for one search invocation.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// StorageConfig holds settings for the run store.
type StorageConfig struct {
	// DataDir is the base directory for the run database.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// OutputConfig holds settings for document output.
type OutputConfig struct {
	// Dir is the directory final documents are written to.
	Dir string `json:"dir" yaml:"dir"`
}

// Config groups all configuration for the research-assistant. It is
// read-only after initialization and safe for concurrent reads.
type Config struct {
	Stages   map[string]StageConfig `json:"stages" yaml:"stages"`
	Scoring  ScoringConfig          `json:"scoring" yaml:"scoring"`
	Citation CitationConfig         `json:"citation" yaml:"citation"`
	Search   SearchConfig           `json:"search" yaml:"search"`
	Storage  StorageConfig          `json:"storage" yaml:"storage"`
	Output   OutputConfig           `json:"output" yaml:"output"`
}

// StageOrDefault returns the configured policy for the named stage, or def
// when the stage has no entry.
func (c Config) StageOrDefault(name string, def StageConfig) StageConfig {
	if sc, ok := c.Stages[name]; ok {
		return sc
	}
	return def
}
