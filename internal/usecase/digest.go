package usecase

import (
	"context"
	"fmt"
	"strings"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Candidate is a document flagged for delivery together with its own title.
type Candidate struct {
	Info  domain.DocumentInfo
	Title string
}

// BuildDigests renders one digest per candidate that still has unsent sections.
// Candidates without unsent sections are omitted.
func BuildDigests(ctx context.Context, ledger ports.Ledger, summaryType domain.SummaryType, candidates []Candidate) ([]domain.Digest, error) {
	digests := make([]domain.Digest, 0, len(candidates))
	for _, c := range candidates {
		unsent, err := ledger.UnsentSections(ctx, c.Info.ID)
		if err != nil {
			return nil, fmt.Errorf("unsent sections for %s: %w", c.Info.ID, err)
		}
		if len(unsent) == 0 {
			continue
		}

		digests = append(digests, domain.Digest{
			DocumentID:    c.Info.ID,
			Title:         c.Title,
			URL:           c.Info.URL,
			Content:       JoinSections(unsent),
			DatePublished: unsent[0].Date.Format(domain.DateLayout),
			SummaryType:   summaryType,
		})
	}
	return digests, nil
}

// JoinSections renders newest-first unsent sections as labeled blocks.
func JoinSections(unsent []domain.SectionSummary) string {
	blocks := make([]string, 0, len(unsent))
	for _, s := range unsent {
		blocks = append(blocks, fmt.Sprintf("Update %s:\n%s", s.Date.Format(domain.DateLayout), s.Summary))
	}
	return strings.Join(blocks, "\n\n")
}
