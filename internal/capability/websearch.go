// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capability

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/research-assistant/internal/httputil"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ddgEndpoint is the DuckDuckGo lite HTML interface, which needs no API
// key and is stable enough for scraping.
const ddgEndpoint = "https://lite.duckduckgo.com/lite/"

// ddgRateLimit enforces a global limit of one query per second across all
// searcher instances and goroutines.
var ddgRateLimit struct {
	mu   sync.Mutex
	last time.Time
}

// WebSearcher queries the DuckDuckGo lite interface and returns sources.
type WebSearcher struct {
	client    *http.Client
	userAgent string
	perQuery  int
}

// NewWebSearcher builds a searcher from the search configuration.
func NewWebSearcher(cfg types.SearchConfig) *WebSearcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "research-assistant/0.1"
	}
	return &WebSearcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		perQuery:  5,
	}
}

// Search runs one query against the lite endpoint. Rate limiting (429) and
// upstream unavailability (503) are retried with backoff before the error
// surfaces as a transient capability failure.
func (ws *WebSearcher) Search(ctx context.Context, query string) ([]Source, error) {
	if strings.TrimSpace(query) == "" {
		return nil, Errorf(KindWebSearch, "query is empty")
	}

	ddgRateLimit.mu.Lock()
	if wait := time.Until(ddgRateLimit.last.Add(time.Second)); wait > 0 {
		ddgRateLimit.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		ddgRateLimit.mu.Lock()
	}
	ddgRateLimit.last = time.Now()
	ddgRateLimit.mu.Unlock()

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ddgEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ws.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httputil.DoWithRetry(ctx, ws.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Errorf(KindWebSearch, "duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Errorf(KindWebSearch, "reading response: %v", err)
	}

	return ws.parseResults(string(body)), nil
}

// Result links look like <a ... class='result-link' href='URL'>TITLE</a>;
// snippets sit in <td class='result-snippet'> cells.
var (
	ddgLinkPattern    = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgLinkPatternAlt = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// parseResults extracts sources from the lite HTML page.
func (ws *WebSearcher) parseResults(html string) []Source {
	matches := ddgLinkPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = ddgLinkPatternAlt.FindAllStringSubmatch(html, -1)
	}
	snippets := ddgSnippetPattern.FindAllStringSubmatch(html, -1)

	var sources []Source
	seen := make(map[string]bool)
	for i, m := range matches {
		if len(m) < 3 {
			continue
		}
		link := strings.TrimSpace(m[1])
		title := cleanHTML(m[2])
		if link == "" || title == "" || seen[link] {
			continue
		}
		seen[link] = true

		snippet := ""
		if i < len(snippets) && len(snippets[i]) > 1 {
			snippet = cleanHTML(snippets[i][1])
		}

		sources = append(sources, Source{Title: title, URL: link, Snippet: snippet})
		if len(sources) >= ws.perQuery {
			break
		}
	}
	return sources
}

// cleanHTML strips tags and decodes the entities the lite page emits.
func cleanHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	return strings.TrimSpace(replacer.Replace(s))
}
