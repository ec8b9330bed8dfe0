package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"DocDigest/internal/domain"
	"DocDigest/internal/infrastructure/storage"
)

func newDocumentPipeline(ledger *storage.MemoryLedger, source *fakeSource, summarizer *fakeSummarizer, mailer *fakeMailer) *DocumentPipeline {
	return NewDocumentPipeline(PipelineDeps{
		Source:     source,
		Ledger:     ledger,
		Summarizer: summarizer,
		Mailer:     mailer,
	})
}

func tddFeed(ids ...string) Feed {
	feed := Feed{Type: domain.SummaryTDD, Subscribers: []string{"eng@example.com"}}
	for _, id := range ids {
		feed.Documents = append(feed.Documents, domain.DocumentInfo{
			ID:            id,
			URL:           "https://docs.google.com/document/d/" + id + "/edit",
			DatePublished: "2024-05-01",
		})
	}
	return feed
}

func TestDocumentPipelineSummarizesOnce(t *testing.T) {
	t.Parallel()

	ledger := storage.NewMemoryLedger()
	source := &fakeSource{docs: map[string]domain.Document{"tdd-1": {Title: "Storage TDD", Text: "design body"}}}
	summarizer := &fakeSummarizer{}
	mailer := &fakeMailer{}
	pipeline := newDocumentPipeline(ledger, source, summarizer, mailer)
	feed := tddFeed("tdd-1")

	report, err := pipeline.Run(context.Background(), feed, RunOptions{RunID: "r1"})
	require.NoError(t, err)
	require.Equal(t, []string{"tdd-1"}, report.Summarized)
	require.Equal(t, []string{"tdd-1"}, report.Delivered)

	require.Len(t, mailer.sent, 1)
	digest := mailer.sent[0].batch[0]
	require.Equal(t, "Storage TDD", digest.Title)
	require.Equal(t, "summary of design body", digest.Content)
	require.Equal(t, "2024-05-01", digest.DatePublished)
	require.Equal(t, domain.SummaryTDD, digest.SummaryType)
	require.Equal(t, "https://docs.google.com/document/d/tdd-1/edit", digest.URL)

	stored, ok, err := ledger.DocumentSummary(context.Background(), "tdd-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, stored.Sent)

	_, err = pipeline.Run(context.Background(), feed, RunOptions{RunID: "r2"})
	require.NoError(t, err)
	require.Len(t, summarizer.calls, 1)
	require.Len(t, mailer.sent, 1)
}

func TestDocumentPipelineResendsUnsentSummary(t *testing.T) {
	t.Parallel()

	ledger := storage.NewMemoryLedger()
	require.NoError(t, ledger.SaveDocumentSummary(context.Background(), domain.DocumentSummary{
		DocumentID:    "prd-1",
		Title:         "Billing PRD",
		Summary:       "stored summary",
		DatePublished: "2024-04-02",
		SummaryType:   domain.SummaryPRD,
	}))
	summarizer := &fakeSummarizer{}
	mailer := &fakeMailer{}
	pipeline := newDocumentPipeline(ledger, &fakeSource{}, summarizer, mailer)

	feed := tddFeed("prd-1")
	feed.Type = domain.SummaryPRD
	report, err := pipeline.Run(context.Background(), feed, RunOptions{})
	require.NoError(t, err)

	require.Empty(t, summarizer.calls)
	require.Empty(t, report.Summarized)
	require.Equal(t, []string{"prd-1"}, report.Delivered)
	require.Equal(t, "stored summary", mailer.sent[0].batch[0].Content)
}

func TestDocumentPipelineSkipsOversizedDocument(t *testing.T) {
	t.Parallel()

	ledger := storage.NewMemoryLedger()
	source := &fakeSource{docs: map[string]domain.Document{
		"tdd-1": {Title: "Huge", Text: "enormous"},
		"tdd-2": {Title: "Small", Text: "tiny"},
	}}
	summarizer := &fakeSummarizer{fail: map[string]error{"enormous": fmt.Errorf("wrap: %w", domain.ErrContentTooLarge)}}
	mailer := &fakeMailer{}
	pipeline := newDocumentPipeline(ledger, source, summarizer, mailer)

	report, err := pipeline.Run(context.Background(), tddFeed("tdd-1", "tdd-2"), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"tdd-1"}, report.Skipped)
	require.Equal(t, []string{"tdd-2"}, report.Delivered)

	_, ok, err := ledger.DocumentSummary(context.Background(), "tdd-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDocumentPipelineEmptyDocumentFails(t *testing.T) {
	t.Parallel()

	source := &fakeSource{docs: map[string]domain.Document{"tdd-1": {Title: "Blank", Text: "  \n"}}}
	mailer := &fakeMailer{}
	pipeline := newDocumentPipeline(storage.NewMemoryLedger(), source, &fakeSummarizer{}, mailer)

	_, err := pipeline.Run(context.Background(), tddFeed("tdd-1"), RunOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no content")
	require.Empty(t, mailer.sent)
}

func TestDocumentPipelineSendFailureKeepsSummaryUnsent(t *testing.T) {
	t.Parallel()

	ledger := storage.NewMemoryLedger()
	source := &fakeSource{docs: map[string]domain.Document{"tdd-1": {Title: "Storage TDD", Text: "body"}}}
	mailer := &fakeMailer{failAt: map[string]error{"eng@example.com": errors.New("rejected")}}
	pipeline := newDocumentPipeline(ledger, source, &fakeSummarizer{}, mailer)

	_, err := pipeline.Run(context.Background(), tddFeed("tdd-1"), RunOptions{})
	require.Error(t, err)

	stored, ok, err := ledger.DocumentSummary(context.Background(), "tdd-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, stored.Sent)
}
