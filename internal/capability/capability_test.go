// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestScriptedReplaysInOrder(t *testing.T) {
	s := NewScripted(Script{Responses: []ScriptEntry{
		{Kind: "web-search", Sources: []Source{{Title: "First", URL: "https://a"}}},
		{Kind: "model-generate", Text: "analysis text"},
		{Kind: "web-search", Sources: []Source{{Title: "Second", URL: "https://b"}}},
	}})

	resp, err := s.Invoke(context.Background(), Request{Kind: KindWebSearch})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Sources[0].Title != "First" {
		t.Errorf("first web-search = %q, want First", resp.Sources[0].Title)
	}

	resp, err = s.Invoke(context.Background(), Request{Kind: KindModelGenerate})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Text != "analysis text" {
		t.Errorf("model-generate = %q", resp.Text)
	}

	resp, err = s.Invoke(context.Background(), Request{Kind: KindWebSearch})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Sources[0].Title != "Second" {
		t.Errorf("second web-search = %q, want Second", resp.Sources[0].Title)
	}
}

func TestScriptedRecordedError(t *testing.T) {
	s := NewScripted(Script{Responses: []ScriptEntry{
		{Kind: "model-generate", Error: "simulated outage"},
	}})

	_, err := s.Invoke(context.Background(), Request{Kind: KindModelGenerate})
	if !errors.Is(err, ErrCapability) {
		t.Errorf("err = %v, want ErrCapability", err)
	}
	if !strings.Contains(err.Error(), "simulated outage") {
		t.Errorf("err = %v, want recorded message", err)
	}
}

func TestScriptedExhaustion(t *testing.T) {
	s := NewScripted(Script{})
	_, err := s.Invoke(context.Background(), Request{Kind: KindWebSearch, Stage: "research"})
	if !errors.Is(err, ErrCapability) {
		t.Errorf("err = %v, want ErrCapability", err)
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.yaml")
	script := `responses:
  - kind: web-search
    sources:
      - title: Recorded Hit
        url: https://example.org/hit
  - kind: model-generate
    text: recorded analysis
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	resp, err := s.Invoke(context.Background(), Request{Kind: KindWebSearch})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Title != "Recorded Hit" {
		t.Errorf("Sources = %+v", resp.Sources)
	}
}

// fakeSearcher returns canned results per query and records failures.
type fakeSearcher struct {
	results map[string][]Source
	fail    map[string]bool
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]Source, error) {
	if f.fail[query] {
		return nil, Errorf(KindWebSearch, "backend down")
	}
	return f.results[query], nil
}

func testLocal(searcher searchBackend, outputDir string, maxResults int) *Local {
	return &Local{
		searcher:   searcher,
		outputDir:  outputDir,
		maxResults: maxResults,
		logger:     zap.NewNop(),
	}
}

func TestLocalSearchFanOutMergesAndDedupes(t *testing.T) {
	l := testLocal(&fakeSearcher{results: map[string][]Source{
		"go concurrency":        {{Title: "A", URL: "https://a"}, {Title: "B", URL: "https://b"}},
		"go concurrency trends": {{Title: "B again", URL: "https://b"}, {Title: "C", URL: "https://c"}},
	}}, t.TempDir(), 10)

	resp, err := l.Invoke(context.Background(), Request{
		Kind:   KindWebSearch,
		Params: map[string]any{"queries": []string{"go concurrency", "go concurrency trends"}},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var urls []string
	for _, s := range resp.Sources {
		urls = append(urls, s.URL)
	}
	want := []string{"https://a", "https://b", "https://c"}
	if fmt.Sprint(urls) != fmt.Sprint(want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}
}

func TestLocalSearchPartialFailureDegrades(t *testing.T) {
	l := testLocal(&fakeSearcher{
		results: map[string][]Source{"ok": {{Title: "A", URL: "https://a"}}},
		fail:    map[string]bool{"down": true},
	}, t.TempDir(), 10)

	resp, err := l.Invoke(context.Background(), Request{
		Kind:   KindWebSearch,
		Params: map[string]any{"queries": []string{"ok", "down"}},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("Sources = %+v, want the surviving query's hit", resp.Sources)
	}
}

func TestLocalSearchTotalFailure(t *testing.T) {
	l := testLocal(&fakeSearcher{fail: map[string]bool{"down": true}}, t.TempDir(), 10)

	_, err := l.Invoke(context.Background(), Request{
		Kind:   KindWebSearch,
		Params: map[string]any{"query": "down"},
	})
	if !errors.Is(err, ErrCapability) {
		t.Errorf("err = %v, want ErrCapability", err)
	}
}

func TestLocalGenerateDeterministic(t *testing.T) {
	l := testLocal(&fakeSearcher{}, t.TempDir(), 10)
	req := Request{Kind: KindModelGenerate, Params: map[string]any{
		"mode":     "analysis",
		"query":    "renewable storage",
		"findings": "- grid batteries scale\n- costs fell in 2025",
	}}

	a, err := l.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	b, err := l.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if a.Text != b.Text {
		t.Error("repeated generation differs")
	}
	if !strings.Contains(a.Text, "renewable storage") {
		t.Errorf("analysis text missing query:\n%s", a.Text)
	}
	if !strings.Contains(a.Text, "grid batteries scale") {
		t.Errorf("analysis text missing findings headline:\n%s", a.Text)
	}
}

func TestLocalGenerateUnknownMode(t *testing.T) {
	l := testLocal(&fakeSearcher{}, t.TempDir(), 10)
	_, err := l.Invoke(context.Background(), Request{Kind: KindModelGenerate, Params: map[string]any{"mode": "poetry"}})
	if !errors.Is(err, ErrCapability) {
		t.Errorf("err = %v, want ErrCapability", err)
	}
}

func TestLocalFileWrite(t *testing.T) {
	dir := t.TempDir()
	l := testLocal(&fakeSearcher{}, dir, 10)

	resp, err := l.Invoke(context.Background(), Request{Kind: KindFileWrite, Params: map[string]any{
		"filename": "report.md",
		"content":  "# Report\n",
	}})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Path != filepath.Join(dir, "report.md") {
		t.Errorf("Path = %q", resp.Path)
	}
	data, err := os.ReadFile(resp.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "# Report\n" {
		t.Errorf("content = %q", data)
	}
}

func TestParseResultsFromLiteHTML(t *testing.T) {
	html := `<table>
<tr><td><a rel="nofollow" class='result-link' href='https://example.org/one'>First Result</a></td></tr>
<tr><td class='result-snippet'>Snippet one text.</td></tr>
<tr><td><a rel="nofollow" class='result-link' href='https://example.org/two'>Second &amp; Third</a></td></tr>
<tr><td class='result-snippet'>Snippet two text.</td></tr>
</table>`

	ws := NewWebSearcher(types.SearchConfig{})
	sources := ws.parseResults(html)
	if len(sources) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(sources), sources)
	}
	if sources[0].Title != "First Result" || sources[0].URL != "https://example.org/one" {
		t.Errorf("sources[0] = %+v", sources[0])
	}
	if sources[0].Snippet != "Snippet one text." {
		t.Errorf("snippet = %q", sources[0].Snippet)
	}
	if sources[1].Title != "Second & Third" {
		t.Errorf("entity decoding failed: %q", sources[1].Title)
	}
}
