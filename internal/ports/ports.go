package ports

import (
	"context"
	"time"

	"DocDigest/internal/domain"
)

// DocumentSource fetches a document's title and full text.
type DocumentSource interface {
	Fetch(ctx context.Context, doc domain.DocumentInfo) (domain.Document, error)
}

// Summarizer turns text into a markdown summary.
// Oversized input fails with domain.ErrContentTooLarge.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Mailer delivers a complete digest batch to one address.
// A call either fully succeeds or is treated as fully failed.
type Mailer interface {
	Send(ctx context.Context, address string, batch []domain.Digest) error
}

// Ledger owns the lifecycle of persisted sections and document summaries.
type Ledger interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error

	LatestSectionDate(ctx context.Context, documentID string) (time.Time, bool, error)
	SaveSection(ctx context.Context, record domain.SectionRecord) error
	UnsentSections(ctx context.Context, documentID string) ([]domain.SectionSummary, error)
	MarkSent(ctx context.Context, documentID string) error

	DocumentSummary(ctx context.Context, documentID string) (domain.DocumentSummary, bool, error)
	SaveDocumentSummary(ctx context.Context, summary domain.DocumentSummary) error
	MarkDocumentSent(ctx context.Context, documentID string) error
}

// Confirmer shows a delivery preview and decides whether to send it.
type Confirmer interface {
	Confirm(ctx context.Context, batch []domain.Digest, recipients []string) (bool, error)
}

// Archive keeps a copy of every delivered batch.
type Archive interface {
	Store(ctx context.Context, runID string, summaryType domain.SummaryType, batch []domain.Digest) error
}

// EventPublisher announces ledger transitions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
