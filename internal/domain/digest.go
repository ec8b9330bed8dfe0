package domain

// Digest is one outbound entry of an e-mail batch. It is never persisted.
type Digest struct {
	DocumentID    string
	Title         string
	URL           string
	Content       string
	DatePublished string
	SummaryType   SummaryType
}

// EventType names delivery events published after ledger transitions.
type EventType string

const (
	EventSectionSummarized EventType = "section.summarized"
	EventDigestDelivered   EventType = "digest.delivered"
)

// Event is a best-effort notification about a ledger transition.
type Event struct {
	Type        EventType   `json:"type"`
	RunID       string      `json:"run_id"`
	DocumentID  string      `json:"document_id"`
	SummaryType SummaryType `json:"summary_type"`
	SectionDate string      `json:"section_date,omitempty"`
	Recipients  int         `json:"recipients,omitempty"`
}
