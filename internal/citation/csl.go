// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that exported bibliographies are consumable by Pandoc and reference
// managers.
type CSLItem struct {
	ID        string    `yaml:"id"`
	Type      string    `yaml:"type"`
	Title     string    `yaml:"title"`
	Author    []CSLName `yaml:"author,omitempty"`
	Publisher string    `yaml:"publisher,omitempty"`
	Issued    *CSLDate  `yaml:"issued,omitempty"`
	URL       string    `yaml:"URL,omitempty"`
	Accessed  string    `yaml:"accessed,omitempty"`
	DOI       string    `yaml:"DOI,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// ExportCSL writes the store's records as a CSL-YAML list to w, in
// insertion order.
func (s *Store) ExportCSL(w io.Writer) error {
	citations := s.Citations()
	items := make([]CSLItem, len(citations))
	for i, c := range citations {
		items[i] = toCSLItem(c)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a stored citation to a CSLItem.
func toCSLItem(c types.Citation) CSLItem {
	item := CSLItem{
		ID:        c.ID,
		Type:      cslType(c.SourceType),
		Title:     c.Title,
		Publisher: c.Publisher,
		URL:       c.URL,
		Accessed:  c.Accessed,
		DOI:       c.DOI,
	}
	for _, a := range c.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if c.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{c.Year}}}
	}
	return item
}

// cslType maps a source type to its CSL item type.
func cslType(t types.SourceType) string {
	switch t {
	case types.SourceJournal:
		return "article-journal"
	case types.SourceBook:
		return "book"
	case types.SourceReport:
		return "report"
	default:
		return "webpage"
	}
}

// parseAuthorName splits an author string into CSL family/given parts.
// "Surname, Initials" form splits on the comma; otherwise the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if idx := strings.Index(name, ","); idx >= 0 {
		return CSLName{
			Family: strings.TrimSpace(name[:idx]),
			Given:  strings.TrimSpace(name[idx+1:]),
		}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
