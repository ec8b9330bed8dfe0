package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

type sectionDoc struct {
	DocumentID  string    `firestore:"document_id"`
	SectionDate string    `firestore:"section_date"`
	Content     string    `firestore:"section_content"`
	Summary     string    `firestore:"section_summary"`
	ProcessedAt time.Time `firestore:"processed_at"`
	Sent        bool      `firestore:"sent"`
}

type summaryDoc struct {
	DocumentID    string `firestore:"document_id"`
	Title         string `firestore:"title"`
	Summary       string `firestore:"summary"`
	DatePublished string `firestore:"date_published"`
	Sent          bool   `firestore:"sent"`
	SummaryType   string `firestore:"summary_type"`
}

// FirestoreLedger stores the ledger as two Firestore collections.
// Section documents are keyed by document id and date, so Create enforces
// the save-once rule server side.
//
// The section queries need the composite indexes in deploy/firestore.indexes.json
// (document_id + section_date desc, document_id + sent + section_date desc).
type FirestoreLedger struct {
	client *firestore.Client
	prefix string
}

var _ ports.Ledger = (*FirestoreLedger)(nil)

// NewFirestoreLedger wires a client; prefix namespaces the collection names.
func NewFirestoreLedger(client *firestore.Client, prefix string) *FirestoreLedger {
	return &FirestoreLedger{client: client, prefix: prefix}
}

func (l *FirestoreLedger) sections() *firestore.CollectionRef {
	return l.client.Collection(l.prefix + sectionsTable)
}

func (l *FirestoreLedger) summaries() *firestore.CollectionRef {
	return l.client.Collection(l.prefix + summariesTable)
}

func sectionKey(documentID string, date time.Time) string {
	return documentID + "_" + date.Format(domain.DateLayout)
}

// Init is a no-op: collections appear on first write.
func (l *FirestoreLedger) Init(context.Context) error {
	return nil
}

// Reset deletes every document of both collections.
func (l *FirestoreLedger) Reset(ctx context.Context) error {
	for _, col := range []*firestore.CollectionRef{l.sections(), l.summaries()} {
		iter := col.DocumentRefs(ctx)
		for {
			ref, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return fmt.Errorf("list %s: %w", col.ID, err)
			}
			if _, err := ref.Delete(ctx); err != nil {
				return fmt.Errorf("delete %s/%s: %w", col.ID, ref.ID, err)
			}
		}
	}
	return nil
}

func (l *FirestoreLedger) LatestSectionDate(ctx context.Context, documentID string) (time.Time, bool, error) {
	iter := l.sections().
		Where("document_id", "==", documentID).
		OrderBy("section_date", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, queryError("query latest date", err)
	}

	var doc sectionDoc
	if err := snap.DataTo(&doc); err != nil {
		return time.Time{}, false, fmt.Errorf("decode section %s: %w", snap.Ref.ID, err)
	}
	date, err := time.Parse(domain.DateLayout, doc.SectionDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stored section date %q: %w", doc.SectionDate, err)
	}
	return date, true, nil
}

func queryError(op string, err error) error {
	if status.Code(err) == codes.FailedPrecondition {
		return fmt.Errorf("%s: missing composite index, deploy deploy/firestore.indexes.json: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (l *FirestoreLedger) SaveSection(ctx context.Context, record domain.SectionRecord) error {
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	key := sectionKey(record.DocumentID, record.SectionDate)
	_, err := l.sections().Doc(key).Create(ctx, sectionDoc{
		DocumentID:  record.DocumentID,
		SectionDate: record.SectionDate.Format(domain.DateLayout),
		Content:     record.Content,
		Summary:     record.Summary,
		ProcessedAt: processedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSection, key)
	}
	if err != nil {
		return fmt.Errorf("create section %s: %w", key, err)
	}
	return nil
}

func (l *FirestoreLedger) unsent(ctx context.Context, documentID string) ([]*firestore.DocumentSnapshot, error) {
	iter := l.sections().
		Where("document_id", "==", documentID).
		Where("sent", "==", false).
		OrderBy("section_date", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	snaps, err := iter.GetAll()
	if err != nil {
		return nil, queryError("query unsent", err)
	}
	return snaps, nil
}

func (l *FirestoreLedger) UnsentSections(ctx context.Context, documentID string) ([]domain.SectionSummary, error) {
	snaps, err := l.unsent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SectionSummary, 0, len(snaps))
	for _, snap := range snaps {
		var doc sectionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode section %s: %w", snap.Ref.ID, err)
		}
		date, err := time.Parse(domain.DateLayout, doc.SectionDate)
		if err != nil {
			return nil, fmt.Errorf("stored section date %q: %w", doc.SectionDate, err)
		}
		result = append(result, domain.SectionSummary{Date: date, Summary: doc.Summary})
	}
	return result, nil
}

func (l *FirestoreLedger) MarkSent(ctx context.Context, documentID string) error {
	snaps, err := l.unsent(ctx, documentID)
	if err != nil {
		return err
	}

	for _, snap := range snaps {
		if _, err := snap.Ref.Update(ctx, []firestore.Update{{Path: "sent", Value: true}}); err != nil {
			return fmt.Errorf("mark %s sent: %w", snap.Ref.ID, err)
		}
	}
	return nil
}

func (l *FirestoreLedger) DocumentSummary(ctx context.Context, documentID string) (domain.DocumentSummary, bool, error) {
	snap, err := l.summaries().Doc(documentID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.DocumentSummary{}, false, nil
	}
	if err != nil {
		return domain.DocumentSummary{}, false, fmt.Errorf("get summary %s: %w", documentID, err)
	}

	var doc summaryDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.DocumentSummary{}, false, fmt.Errorf("decode summary %s: %w", documentID, err)
	}
	return domain.DocumentSummary{
		DocumentID:    doc.DocumentID,
		Title:         doc.Title,
		Summary:       doc.Summary,
		DatePublished: doc.DatePublished,
		SummaryType:   domain.SummaryType(doc.SummaryType),
		Sent:          doc.Sent,
	}, true, nil
}

func (l *FirestoreLedger) SaveDocumentSummary(ctx context.Context, summary domain.DocumentSummary) error {
	_, err := l.summaries().Doc(summary.DocumentID).Create(ctx, summaryDoc{
		DocumentID:    summary.DocumentID,
		Title:         summary.Title,
		Summary:       summary.Summary,
		DatePublished: summary.DatePublished,
		SummaryType:   string(summary.SummaryType),
	})
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSummary, summary.DocumentID)
	}
	if err != nil {
		return fmt.Errorf("create summary %s: %w", summary.DocumentID, err)
	}
	return nil
}

func (l *FirestoreLedger) MarkDocumentSent(ctx context.Context, documentID string) error {
	_, err := l.summaries().Doc(documentID).Update(ctx, []firestore.Update{{Path: "sent", Value: true}})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark summary %s sent: %w", documentID, err)
	}
	return nil
}
