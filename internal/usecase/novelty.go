package usecase

import (
	"context"
	"fmt"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Novelty is the per-document decision of a run.
type Novelty struct {
	HasNewSection bool
	HasUnsent     bool
}

// NeedsSummary reports whether the latest section must be summarized and persisted.
func (n Novelty) NeedsSummary() bool {
	return n.HasNewSection
}

// NeedsDelivery reports whether the document belongs to this run's delivery set.
// Unsent records left by an interrupted run keep the document in the set.
func (n Novelty) NeedsDelivery() bool {
	return n.HasNewSection || n.HasUnsent
}

// DetectNovelty compares the parsed latest section with ledger state.
func DetectNovelty(ctx context.Context, ledger ports.Ledger, documentID string, latest domain.DocumentSection) (Novelty, error) {
	var n Novelty

	recorded, ok, err := ledger.LatestSectionDate(ctx, documentID)
	if err != nil {
		return n, fmt.Errorf("latest section date: %w", err)
	}
	n.HasNewSection = !ok || latest.Date.After(recorded)

	unsent, err := ledger.UnsentSections(ctx, documentID)
	if err != nil {
		return n, fmt.Errorf("unsent sections: %w", err)
	}
	n.HasUnsent = len(unsent) > 0

	return n, nil
}
