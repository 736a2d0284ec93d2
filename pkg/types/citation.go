// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceType classifies where a citation's material came from.
type SourceType string

const (
	SourceJournal SourceType = "journal"
	SourceWeb     SourceType = "web"
	SourceBook    SourceType = "book"
	SourceReport  SourceType = "report"
)

// Citation is one bibliographic record held by a citation store. The raw
// fields are fixed when the record is created; rendering in a citation
// style never mutates them.
type Citation struct {
	// ID is the store-unique identifier, an 8-hex-digit digest of title+URL.
	ID string `json:"id" yaml:"id"`

	// Authors lists the work's authors in source order. Entries may be
	// "Surname, Initials" or "Given Surname" form.
	Authors []string `json:"authors" yaml:"authors"`

	// Title is the work's title.
	Title string `json:"title" yaml:"title"`

	// SourceType classifies the work: journal, web, book, or report.
	SourceType SourceType `json:"source_type" yaml:"source_type"`

	// Year is the publication year. Zero means unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// URL is where the work was retrieved from (optional).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Accessed is the access date in YYYY-MM-DD form (optional).
	Accessed string `json:"accessed,omitempty" yaml:"accessed,omitempty"`

	// Publisher is the publishing body (optional).
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`

	// DOI is the digital object identifier (optional).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Extra carries style-agnostic raw fields that no template consumes
	// directly (e.g. venue, edition).
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}
