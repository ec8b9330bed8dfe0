package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// MemoryLedger keeps the ledger in process memory. It backs tests and dry runs.
type MemoryLedger struct {
	mu        sync.Mutex
	sections  map[string][]domain.SectionRecord
	summaries map[string]domain.DocumentSummary
}

var _ ports.Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger builds an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	l := &MemoryLedger{}
	l.reset()
	return l
}

func (l *MemoryLedger) reset() {
	l.sections = map[string][]domain.SectionRecord{}
	l.summaries = map[string]domain.DocumentSummary{}
}

func (l *MemoryLedger) Init(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sections == nil {
		l.reset()
	}
	return nil
}

func (l *MemoryLedger) Reset(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset()
	return nil
}

func (l *MemoryLedger) LatestSectionDate(_ context.Context, documentID string) (time.Time, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		latest time.Time
		found  bool
	)
	for _, rec := range l.sections[documentID] {
		if !found || rec.SectionDate.After(latest) {
			latest = rec.SectionDate
			found = true
		}
	}
	return latest, found, nil
}

func (l *MemoryLedger) SaveSection(_ context.Context, record domain.SectionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range l.sections[record.DocumentID] {
		if rec.SectionDate.Equal(record.SectionDate) {
			return fmt.Errorf("%w: %s@%s", domain.ErrDuplicateSection, record.DocumentID, record.SectionDate.Format(domain.DateLayout))
		}
	}

	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now().UTC()
	}
	record.Sent = false
	l.sections[record.DocumentID] = append(l.sections[record.DocumentID], record)
	return nil
}

func (l *MemoryLedger) UnsentSections(_ context.Context, documentID string) ([]domain.SectionSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []domain.SectionSummary
	for _, rec := range l.sections[documentID] {
		if !rec.Sent {
			result = append(result, domain.SectionSummary{Date: rec.SectionDate, Summary: rec.Summary})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (l *MemoryLedger) MarkSent(_ context.Context, documentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.sections[documentID]
	for i := range records {
		records[i].Sent = true
	}
	return nil
}

func (l *MemoryLedger) DocumentSummary(_ context.Context, documentID string) (domain.DocumentSummary, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary, ok := l.summaries[documentID]
	return summary, ok, nil
}

func (l *MemoryLedger) SaveDocumentSummary(_ context.Context, summary domain.DocumentSummary) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.summaries[summary.DocumentID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSummary, summary.DocumentID)
	}
	summary.Sent = false
	l.summaries[summary.DocumentID] = summary
	return nil
}

func (l *MemoryLedger) MarkDocumentSent(_ context.Context, documentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if summary, ok := l.summaries[documentID]; ok {
		summary.Sent = true
		l.summaries[documentID] = summary
	}
	return nil
}

// Sections returns a copy of every stored record of a document.
func (l *MemoryLedger) Sections(documentID string) []domain.SectionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]domain.SectionRecord(nil), l.sections[documentID]...)
}
