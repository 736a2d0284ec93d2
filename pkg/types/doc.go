// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant
// workflow engine: citations, quality scores, stage outcomes, workflow
// results, and the configuration tree.
package types
