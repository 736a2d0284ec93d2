// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation maintains structured bibliographic records for one
// workflow run and renders them in APA, MLA, and Chicago styles. Rendering
// is a pure function of the stored fields and the style, so repeated calls
// with no intervening Add yield identical output.
package citation

import (
	"crypto/md5"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var (
	// ErrValidation reports a citation missing its required fields.
	ErrValidation = errors.New("invalid citation")

	// ErrUnknownStyle reports an unsupported citation style.
	ErrUnknownStyle = errors.New("unknown citation style")

	// ErrNotFound reports a citation id absent from the store.
	ErrNotFound = errors.New("citation not found")
)

// Store holds the citation records accumulated during one workflow run.
// A store is scoped to a single run; records are never deleted. Methods
// are safe for concurrent use by a stage's parallel sub-calls.
type Store struct {
	mu      sync.Mutex
	order   []string
	records map[string]types.Citation
	usage   map[string]int
}

// NewStore returns an empty citation store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]types.Citation),
		usage:   make(map[string]int),
	}
}

// Add validates and stores a citation record, returning its assigned id.
// Authors and title are required; any id on the input is ignored. The
// stored raw fields are copies, so later mutation of the argument cannot
// reach the store.
func (s *Store) Add(c types.Citation) (string, error) {
	if strings.TrimSpace(c.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(c.Authors) == 0 {
		return "", fmt.Errorf("%w: at least one author is required", ErrValidation)
	}

	c.Authors = append([]string(nil), c.Authors...)
	if c.Extra != nil {
		extra := make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			extra[k] = v
		}
		c.Extra = extra
	}
	if c.SourceType == "" {
		c.SourceType = types.SourceWeb
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID(c.Title, c.URL)
	for n := 2; ; n++ {
		if _, taken := s.records[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", newID(c.Title, c.URL), n)
	}
	c.ID = id

	s.records[id] = c
	s.order = append(s.order, id)
	return id, nil
}

// Get returns a copy of the citation with the given id.
func (s *Store) Get(id string) (types.Citation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.records[id]
	return c, ok
}

// Has reports whether the store holds a citation with the given id.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Count returns the number of stored citations.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Render formats one citation in the given style and increments its usage
// counter. The counter never affects rendering output.
func (s *Store) Render(style, id string) (string, error) {
	st, err := ParseStyle(style)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.records[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.usage[id]++
	return format(st, c), nil
}

// RenderAll formats every citation in the given style, in insertion order,
// incrementing each usage counter.
func (s *Store) RenderAll(style string) ([]string, error) {
	st, err := ParseStyle(style)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.order))
	for _, id := range s.order {
		s.usage[id]++
		out = append(out, format(st, s.records[id]))
	}
	return out, nil
}

// Bibliography formats every citation in the given style, sorted by first
// author surname (case-insensitive) with ties broken by title.
func (s *Store) Bibliography(style string) ([]string, error) {
	st, err := ParseStyle(style)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := append([]string(nil), s.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := s.records[ids[i]], s.records[ids[j]]
		sa := strings.ToLower(surname(firstAuthor(a)))
		sb := strings.ToLower(surname(firstAuthor(b)))
		if sa != sb {
			return sa < sb
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, format(st, s.records[id]))
	}
	return out, nil
}

// UsageReport returns a copy of the per-citation render counts.
func (s *Store) UsageReport() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.usage))
	for id, n := range s.usage {
		out[id] = n
	}
	return out
}

// Citations returns copies of all records in insertion order.
func (s *Store) Citations() []types.Citation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Citation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// newID derives a citation id from the title and URL: the first 8 hex
// digits of an md5 digest. Deterministic so replayed runs assign the same
// ids.
func newID(title, url string) string {
	sum := md5.Sum([]byte(title + "|" + url))
	return fmt.Sprintf("%x", sum)[:8]
}

func firstAuthor(c types.Citation) string {
	if len(c.Authors) == 0 {
		return ""
	}
	return c.Authors[0]
}

// surname extracts the sort key from an author name. "Surname, Initials"
// form takes the part before the comma; otherwise the last token.
func surname(author string) string {
	author = strings.TrimSpace(author)
	if idx := strings.Index(author, ","); idx >= 0 {
		return strings.TrimSpace(author[:idx])
	}
	if idx := strings.LastIndex(author, " "); idx >= 0 {
		return author[idx+1:]
	}
	return author
}
