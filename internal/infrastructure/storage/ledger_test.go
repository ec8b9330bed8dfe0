package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

func date(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, raw)
	require.NoError(t, err)
	return d
}

func newSQLiteLedger(t *testing.T) *SQLLedger {
	t.Helper()
	ledger, err := Open("sqlite", filepath.Join(t.TempDir(), "summaries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	require.NoError(t, ledger.Init(context.Background()))
	return ledger
}

func ledgers(t *testing.T) map[string]ports.Ledger {
	all := map[string]ports.Ledger{
		"memory": NewMemoryLedger(),
		"sqlite": newSQLiteLedger(t),
	}
	if ledger := newEmulatorLedger(t); ledger != nil {
		all["firestore"] = ledger
	}
	return all
}

func TestLedgerContract(t *testing.T) {
	for name, ledger := range ledgers(t) {
		ledger := ledger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := ledger.LatestSectionDate(ctx, "doc-1")
			require.NoError(t, err)
			require.False(t, ok)

			for _, raw := range []string{"2024-03-01", "2024-03-15"} {
				require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{
					DocumentID:  "doc-1",
					SectionDate: date(t, raw),
					Content:     "--- UPDATE " + raw + " ---\nbody",
					Summary:     "summary " + raw,
				}))
			}

			latest, ok, err := ledger.LatestSectionDate(ctx, "doc-1")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "2024-03-15", latest.Format(domain.DateLayout))

			unsent, err := ledger.UnsentSections(ctx, "doc-1")
			require.NoError(t, err)
			require.Len(t, unsent, 2)
			require.Equal(t, "2024-03-15", unsent[0].Date.Format(domain.DateLayout))
			require.Equal(t, "summary 2024-03-01", unsent[1].Summary)

			require.NoError(t, ledger.MarkSent(ctx, "doc-1"))
			unsent, err = ledger.UnsentSections(ctx, "doc-1")
			require.NoError(t, err)
			require.Empty(t, unsent)

			// sent records still count for novelty
			latest, ok, err = ledger.LatestSectionDate(ctx, "doc-1")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "2024-03-15", latest.Format(domain.DateLayout))

			require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{
				DocumentID:  "doc-1",
				SectionDate: date(t, "2024-04-01"),
				Summary:     "summary 2024-04-01",
			}))
			unsent, err = ledger.UnsentSections(ctx, "doc-1")
			require.NoError(t, err)
			require.Len(t, unsent, 1)
			require.Equal(t, "summary 2024-04-01", unsent[0].Summary)
		})
	}
}

func TestLedgerSaveSectionTwiceFails(t *testing.T) {
	for name, ledger := range ledgers(t) {
		ledger := ledger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			record := domain.SectionRecord{DocumentID: "doc-1", SectionDate: date(t, "2024-03-15"), Summary: "first"}

			require.NoError(t, ledger.SaveSection(ctx, record))

			record.Summary = "second"
			err := ledger.SaveSection(ctx, record)
			require.ErrorIs(t, err, domain.ErrDuplicateSection)

			unsent, err := ledger.UnsentSections(ctx, "doc-1")
			require.NoError(t, err)
			require.Len(t, unsent, 1)
			require.Equal(t, "first", unsent[0].Summary)
		})
	}
}

func TestLedgerMarkSentIsPerDocument(t *testing.T) {
	for name, ledger := range ledgers(t) {
		ledger := ledger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{DocumentID: "doc-1", SectionDate: date(t, "2024-03-15"), Summary: "a"}))
			require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{DocumentID: "doc-2", SectionDate: date(t, "2024-03-15"), Summary: "b"}))

			require.NoError(t, ledger.MarkSent(ctx, "doc-1"))

			unsent, err := ledger.UnsentSections(ctx, "doc-2")
			require.NoError(t, err)
			require.Len(t, unsent, 1)
		})
	}
}

func TestLedgerDocumentSummaries(t *testing.T) {
	for name, ledger := range ledgers(t) {
		ledger := ledger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := ledger.DocumentSummary(ctx, "tdd-1")
			require.NoError(t, err)
			require.False(t, ok)

			summary := domain.DocumentSummary{
				DocumentID:    "tdd-1",
				Title:         "Payments TDD",
				Summary:       "**Author(s):** Jo",
				DatePublished: "2024-02-02",
				SummaryType:   domain.SummaryTDD,
			}
			require.NoError(t, ledger.SaveDocumentSummary(ctx, summary))
			require.ErrorIs(t, ledger.SaveDocumentSummary(ctx, summary), domain.ErrDuplicateSummary)

			stored, ok, err := ledger.DocumentSummary(ctx, "tdd-1")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "Payments TDD", stored.Title)
			require.Equal(t, domain.SummaryTDD, stored.SummaryType)
			require.False(t, stored.Sent)

			require.NoError(t, ledger.MarkDocumentSent(ctx, "tdd-1"))
			stored, _, err = ledger.DocumentSummary(ctx, "tdd-1")
			require.NoError(t, err)
			require.True(t, stored.Sent)
		})
	}
}

func TestLedgerResetAndIdempotentInit(t *testing.T) {
	for name, ledger := range ledgers(t) {
		ledger := ledger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, ledger.Init(ctx))
			require.NoError(t, ledger.Init(ctx))

			require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{DocumentID: "doc-1", SectionDate: date(t, "2024-03-15")}))
			require.NoError(t, ledger.Reset(ctx))

			_, ok, err := ledger.LatestSectionDate(ctx, "doc-1")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	d, err := DialectFor("postgres")
	require.NoError(t, err)
	require.Equal(t, "postgres", d.Name)

	_, err = DialectFor("oracle")
	require.Error(t, err)
}
