package usecase

import (
	"context"
	"fmt"

	"DocDigest/internal/domain"
)

// PendingSection is an unsent section awaiting delivery.
type PendingSection struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// PendingDocument lists what the next successful run would deliver for one document.
type PendingDocument struct {
	DocumentID string           `json:"document_id"`
	Title      string           `json:"title,omitempty"`
	Sections   []PendingSection `json:"sections,omitempty"`
	Summary    string           `json:"summary,omitempty"`
}

// Pending reads unsent ledger state for every document of a feed without
// fetching or summarizing anything.
func (r *Runner) Pending(ctx context.Context, summaryType domain.SummaryType) ([]PendingDocument, error) {
	feed, ok := r.feeds[summaryType]
	if !ok {
		return nil, fmt.Errorf("feed %s is not configured", summaryType)
	}
	if err := r.ledger.Init(ctx); err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	result := make([]PendingDocument, 0)
	for _, info := range feed.Documents {
		if summaryType.Sectioned() {
			unsent, err := r.ledger.UnsentSections(ctx, info.ID)
			if err != nil {
				return nil, fmt.Errorf("document %s: %w", info.ID, err)
			}
			if len(unsent) == 0 {
				continue
			}
			doc := PendingDocument{DocumentID: info.ID}
			for _, s := range unsent {
				doc.Sections = append(doc.Sections, PendingSection{Date: s.Date.Format(domain.DateLayout), Summary: s.Summary})
			}
			result = append(result, doc)
			continue
		}

		summary, ok, err := r.ledger.DocumentSummary(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", info.ID, err)
		}
		if ok && !summary.Sent {
			result = append(result, PendingDocument{DocumentID: info.ID, Title: summary.Title, Summary: summary.Summary})
		}
	}
	return result, nil
}
