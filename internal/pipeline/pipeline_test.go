// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/internal/engine"
	"github.com/pdiddy/research-assistant/pkg/types"
)

func scriptedRun() *capability.Scripted {
	return capability.NewScripted(capability.Script{Responses: []capability.ScriptEntry{
		{Kind: "web-search", Sources: []capability.Source{
			{Title: "AI in Medicine", URL: "https://journals.example.org/ai-med", Snippet: "Clinical adoption study.", Authors: []string{"Smith, J."}, Year: 2023},
			{Title: "Machine Learning for Diagnosis", URL: "https://example.gov/ml-dx", Snippet: "Government review.", Year: 2024},
		}},
		{Kind: "model-generate", Text: "Evidence shows rising clinical adoption across the reviewed sources."},
		{Kind: "model-generate", Text: "## Findings\n\nAdoption is rising.\n\n## Analysis\n\nThe evidence is consistent."},
		{Kind: "file-write", Path: "/tmp/out/research-run-1.md"},
	}})
}

func testFactory(provider capability.Provider) *Factory {
	f := NewFactory(types.Config{}, provider, nil)
	f.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestPipelineEndToEnd(t *testing.T) {
	f := testFactory(scriptedRun())
	wf, initial, provider, err := f.NewRun("run-1", "AI in medicine", types.RunOptions{
		Format:   "comprehensive_report",
		Audience: "professional",
		Depth:    "detailed",
		Style:    "APA",
	})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	result := wf.Run(context.Background(), engine.RunSpec{
		RunID:   "run-1",
		Query:   "AI in medicine",
		Options: types.RunOptions{Format: "comprehensive_report", Audience: "professional", Depth: "detailed", Style: "APA"},
		Initial: initial,
	}, provider)

	if result.State != types.RunCompleted {
		t.Fatalf("State = %v, errors = %+v", result.State, result.ErrorLog)
	}
	if len(result.Stages) != 4 {
		t.Fatalf("Stages = %d, want 4", len(result.Stages))
	}

	if result.CitationCount != 2 {
		t.Errorf("CitationCount = %d, want 2", result.CitationCount)
	}
	if len(result.Bibliography) != 2 {
		t.Fatalf("Bibliography = %v", result.Bibliography)
	}
	// Bibliographic order: example.gov before Smith.
	if !strings.Contains(result.Bibliography[0], "example.gov") {
		t.Errorf("Bibliography[0] = %q", result.Bibliography[0])
	}
	if !strings.Contains(result.Bibliography[1], "Smith, J. (2023)") {
		t.Errorf("Bibliography[1] = %q", result.Bibliography[1])
	}

	for _, want := range []string{
		"# Research Report: AI in Medicine",
		"**Research question:** AI in medicine",
		"## References",
		"Smith, J. (2023). AI in Medicine. Retrieved from https://journals.example.org/ai-med",
	} {
		if !strings.Contains(result.Document, want) {
			t.Errorf("document missing %q:\n%s", want, result.Document)
		}
	}

	for _, stage := range []string{"research", "analysis", "content"} {
		if _, ok := result.Scores[stage]; !ok {
			t.Errorf("stage %s was not scored", stage)
		}
	}
	if _, ok := result.Scores["publish"]; ok {
		t.Error("publish stage scored without content")
	}

	publish := result.Stages[3]
	if publish.Status != types.StageSucceeded {
		t.Fatalf("publish = %+v", publish)
	}
	if publish.Payload["artifact_path"] != "/tmp/out/research-run-1.md" {
		t.Errorf("artifact_path = %v", publish.Payload["artifact_path"])
	}
}

func TestPipelineFindingsCarryCitationKeys(t *testing.T) {
	f := testFactory(scriptedRun())
	wf, initial, provider, err := f.NewRun("run-2", "AI in medicine", types.RunOptions{})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	result := wf.Run(context.Background(), engine.RunSpec{
		RunID:   "run-2",
		Query:   "AI in medicine",
		Initial: initial,
	}, provider)
	if result.State != types.RunCompleted {
		t.Fatalf("State = %v, errors = %+v", result.State, result.ErrorLog)
	}

	findings, _ := result.Stages[0].Payload["findings"].(string)
	if !strings.Contains(findings, "AI in Medicine [") {
		t.Errorf("findings missing inline citation key:\n%s", findings)
	}
}

func TestPipelineRetryDoesNotDuplicateCitations(t *testing.T) {
	// First search attempt carries a source without a title; the whole
	// attempt must be rejected before any citation is recorded, so the
	// retry starts from an empty store.
	provider := capability.NewScripted(capability.Script{Responses: []capability.ScriptEntry{
		{Kind: "web-search", Sources: []capability.Source{
			{Title: "AI in Medicine", URL: "https://example.org/a", Authors: []string{"Smith, J."}, Year: 2023},
			{Title: "", URL: "https://example.org/untitled"},
		}},
		{Kind: "web-search", Sources: []capability.Source{
			{Title: "AI in Medicine", URL: "https://example.org/a", Authors: []string{"Smith, J."}, Year: 2023},
		}},
		{Kind: "model-generate", Text: "insights"},
		{Kind: "model-generate", Text: "body"},
		{Kind: "file-write", Path: "/tmp/out/research-run-5.md"},
	}})
	f := testFactory(provider)
	wf, initial, provider2, err := f.NewRun("run-5", "AI in medicine", types.RunOptions{})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	result := wf.Run(context.Background(), engine.RunSpec{
		RunID:   "run-5",
		Query:   "AI in medicine",
		Initial: initial,
	}, provider2)

	if result.State != types.RunCompleted {
		t.Fatalf("State = %v, errors = %+v", result.State, result.ErrorLog)
	}
	if result.Stages[0].Attempts != 2 {
		t.Errorf("research attempts = %d, want 2", result.Stages[0].Attempts)
	}
	if result.CitationCount != 1 {
		t.Errorf("CitationCount = %d, want 1", result.CitationCount)
	}
	if len(result.Bibliography) != 1 {
		t.Fatalf("Bibliography = %v, want a single entry", result.Bibliography)
	}
	if !strings.Contains(result.Bibliography[0], "Smith, J. (2023)") {
		t.Errorf("Bibliography[0] = %q", result.Bibliography[0])
	}
}

func TestPipelineFlagsUnknownCitationKeys(t *testing.T) {
	provider := capability.NewScripted(capability.Script{Responses: []capability.ScriptEntry{
		{Kind: "web-search", Sources: []capability.Source{
			{Title: "AI in Medicine", URL: "https://example.org/a", Authors: []string{"Smith, J."}, Year: 2023},
		}},
		{Kind: "model-generate", Text: "insights"},
		{Kind: "model-generate", Text: "Adoption is rising [deadbeef]. See [the full review](https://example.org/review)."},
		{Kind: "file-write", Path: "/tmp/out/research-run-6.md"},
	}})
	f := testFactory(provider)
	wf, initial, provider2, err := f.NewRun("run-6", "AI in medicine", types.RunOptions{})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	result := wf.Run(context.Background(), engine.RunSpec{
		RunID:   "run-6",
		Query:   "AI in medicine",
		Initial: initial,
	}, provider2)

	if result.State != types.RunCompleted {
		t.Fatalf("State = %v, errors = %+v", result.State, result.ErrorLog)
	}
	missing, _ := result.Stages[2].Payload["unresolved_citations"].([]string)
	if len(missing) != 1 || missing[0] != "deadbeef" {
		t.Errorf("unresolved_citations = %v, want [deadbeef]", missing)
	}
}

func TestPipelineSearchFailureIsCritical(t *testing.T) {
	provider := capability.NewScripted(capability.Script{Responses: []capability.ScriptEntry{
		{Kind: "web-search", Error: "network down"},
		{Kind: "web-search", Error: "network down"},
		{Kind: "web-search", Error: "network down"},
	}})
	f := testFactory(provider)
	wf, initial, provider2, err := f.NewRun("run-3", "AI in medicine", types.RunOptions{})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	result := wf.Run(context.Background(), engine.RunSpec{
		RunID:   "run-3",
		Query:   "AI in medicine",
		Initial: initial,
	}, provider2)

	if result.State != types.RunFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if result.Stages[0].Attempts != 3 {
		t.Errorf("research attempts = %d, want 3", result.Stages[0].Attempts)
	}
	for _, sr := range result.Stages[1:] {
		if sr.Status != types.StageSkipped {
			t.Errorf("stage %s = %v, want skipped", sr.Name, sr.Status)
		}
	}
}

func TestPipelinePublishFailureIsPartial(t *testing.T) {
	provider := capability.NewScripted(capability.Script{Responses: []capability.ScriptEntry{
		{Kind: "web-search", Sources: []capability.Source{
			{Title: "AI in Medicine", URL: "https://example.org/a", Authors: []string{"Smith, J."}},
		}},
		{Kind: "model-generate", Text: "insights"},
		{Kind: "model-generate", Text: "body"},
		{Kind: "file-write", Error: "disk full"},
		{Kind: "file-write", Error: "disk full"},
	}})
	f := testFactory(provider)
	wf, initial, provider2, err := f.NewRun("run-4", "AI in medicine", types.RunOptions{})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	result := wf.Run(context.Background(), engine.RunSpec{
		RunID:   "run-4",
		Query:   "AI in medicine",
		Initial: initial,
	}, provider2)

	if result.State != types.RunPartiallyCompleted {
		t.Fatalf("State = %v, want partially_completed", result.State)
	}
	if result.Document == "" {
		t.Error("document lost on publish failure")
	}
	if len(result.ErrorLog) != 1 || result.ErrorLog[0].Stage != "publish" {
		t.Errorf("ErrorLog = %+v", result.ErrorLog)
	}
}

func TestNewRunRejectsBadOptions(t *testing.T) {
	f := testFactory(scriptedRun())
	cases := []struct {
		name string
		q    string
		opts types.RunOptions
	}{
		{"empty query", "  ", types.RunOptions{}},
		{"bad format", "q", types.RunOptions{Format: "haiku"}},
		{"bad audience", "q", types.RunOptions{Audience: "martians"}},
		{"bad depth", "q", types.RunOptions{Depth: "bottomless"}},
		{"bad style", "q", types.RunOptions{Style: "Vancouver"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, _, err := f.NewRun("run-x", tc.q, tc.opts); !errors.Is(err, ErrOptions) {
				t.Errorf("err = %v, want ErrOptions", err)
			}
		})
	}
}

func TestDeriveQueries(t *testing.T) {
	cases := []struct {
		depth string
		want  int
	}{
		{"overview", 1},
		{"detailed", 2},
		{"comprehensive", 3},
		{"expert", 4},
	}
	for _, tc := range cases {
		got := deriveQueries("solar storage", tc.depth)
		if len(got) != tc.want {
			t.Errorf("deriveQueries(%s) = %d queries, want %d", tc.depth, len(got), tc.want)
		}
		if got[0] != "solar storage" {
			t.Errorf("first query = %q, want the base query", got[0])
		}
	}
}

func TestDocumentTitle(t *testing.T) {
	cases := []struct {
		format string
		query  string
		want   string
	}{
		{"comprehensive_report", "AI in medicine", "Research Report: AI in Medicine"},
		{"executive_briefing", "solar storage", "Executive Briefing: Solar Storage"},
		{"policy_brief", "the future of work", "Policy Brief: The Future of Work"},
	}
	for _, tc := range cases {
		if got := documentTitle(tc.format, tc.query); got != tc.want {
			t.Errorf("documentTitle(%s, %s) = %q, want %q", tc.format, tc.query, got, tc.want)
		}
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts, err := normalizeOptions(types.RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := types.RunOptions{Format: "comprehensive_report", Audience: "general", Depth: "detailed", Style: "APA"}
	if opts != want {
		t.Errorf("opts = %+v, want %+v", opts, want)
	}
}
