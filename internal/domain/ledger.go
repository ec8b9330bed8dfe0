package domain

import "time"

// SectionRecord is the persisted state of one (document, section date) pair.
type SectionRecord struct {
	DocumentID  string
	SectionDate time.Time
	Content     string
	Summary     string
	ProcessedAt time.Time
	Sent        bool
}

// SectionSummary is an unsent section as returned to the digest builder.
type SectionSummary struct {
	Date    time.Time
	Summary string
}

// DocumentSummary is a whole-document summary persisted for TDD and PRD feeds.
type DocumentSummary struct {
	DocumentID    string
	Title         string
	Summary       string
	DatePublished string
	SummaryType   SummaryType
	Sent          bool
}
