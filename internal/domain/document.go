package domain

import "time"

// DateLayout is the calendar date format used for section identities.
const DateLayout = "2006-01-02"

// SummaryType enumerates the configured feeds.
type SummaryType string

const (
	SummaryTDD      SummaryType = "TDD"
	SummaryPRD      SummaryType = "PRD"
	SummaryBiweekly SummaryType = "BIWEEKLY"
)

// Sectioned reports whether documents of this type are running logs split into dated sections.
func (t SummaryType) Sectioned() bool {
	return t == SummaryBiweekly
}

// Valid reports whether the type is one of the known feeds.
func (t SummaryType) Valid() bool {
	switch t {
	case SummaryTDD, SummaryPRD, SummaryBiweekly:
		return true
	}
	return false
}

// DocumentInfo is the configured identity of a document.
type DocumentInfo struct {
	ID            string
	URL           string
	Source        string
	DatePublished string
}

// Document is the fetched state of a document.
type Document struct {
	ID    string
	Title string
	Text  string
}

// DocumentSection is one dated unit of content extracted from a document.
type DocumentSection struct {
	Date       time.Time
	Content    string
	RawContent string
}

// DateString formats the section identity.
func (s DocumentSection) DateString() string {
	return s.Date.Format(DateLayout)
}
