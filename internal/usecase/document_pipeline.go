package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// DocumentPipeline summarizes whole documents (TDD, PRD) once and mails each
// summary until it has been delivered.
type DocumentPipeline struct {
	source     ports.DocumentSource
	ledger     ports.Ledger
	summarizer ports.Summarizer
	deliverer  deliverer
	logger     *slog.Logger
}

// NewDocumentPipeline constructs the whole-document workflow.
func NewDocumentPipeline(deps PipelineDeps) *DocumentPipeline {
	return &DocumentPipeline{
		source:     deps.Source,
		ledger:     deps.Ledger,
		summarizer: deps.Summarizer,
		deliverer: deliverer{
			mailer:    deps.Mailer,
			confirmer: deps.Confirmer,
			archive:   deps.Archive,
			events:    deps.Events,
		},
		logger: deps.logger(),
	}
}

// Run summarizes unseen documents, then delivers every unsent summary.
func (p *DocumentPipeline) Run(ctx context.Context, feed Feed, opts RunOptions) (Report, error) {
	report := Report{RunID: opts.RunID, Type: feed.Type}
	log := p.logger.With("run_id", opts.RunID, "feed", feed.Type)

	if p.source == nil || p.ledger == nil || p.summarizer == nil {
		return report, fmt.Errorf("document pipeline is not fully configured")
	}

	var batch []domain.Digest
	for _, info := range feed.Documents {
		existing, ok, err := p.ledger.DocumentSummary(ctx, info.ID)
		if err != nil {
			return report, fmt.Errorf("document %s: load summary: %w", info.ID, err)
		}

		if ok {
			if existing.Sent {
				log.Debug("summary already sent", "document_id", info.ID)
				continue
			}
			log.Info("summary exists but was never sent", "document_id", info.ID)
			batch = append(batch, summaryDigest(existing, info))
			continue
		}

		summary, err := p.summarize(ctx, feed.Type, info)
		if errors.Is(err, domain.ErrContentTooLarge) {
			log.Warn("skipping document, too large to summarize", "document_id", info.ID)
			report.Skipped = append(report.Skipped, info.ID)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("document %s: %w", info.ID, err)
		}

		report.Summarized = append(report.Summarized, info.ID)
		batch = append(batch, summaryDigest(summary, info))
	}

	if len(batch) == 0 {
		log.Info("no summaries to send")
		return report, nil
	}

	commit := func(ctx context.Context) error {
		for _, digest := range batch {
			if err := p.ledger.MarkDocumentSent(ctx, digest.DocumentID); err != nil {
				return fmt.Errorf("mark %s sent: %w", digest.DocumentID, err)
			}
		}
		return nil
	}

	if err := p.deliverer.deliver(ctx, log, feed, opts, batch, &report, commit); err != nil {
		return report, err
	}
	return report, nil
}

func (p *DocumentPipeline) summarize(ctx context.Context, summaryType domain.SummaryType, info domain.DocumentInfo) (domain.DocumentSummary, error) {
	doc, err := p.source.Fetch(ctx, info)
	if err != nil {
		return domain.DocumentSummary{}, fmt.Errorf("fetch: %w", err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return domain.DocumentSummary{}, fmt.Errorf("no content found in %q", doc.Title)
	}

	text, err := p.summarizer.Summarize(ctx, doc.Text)
	if err != nil {
		return domain.DocumentSummary{}, fmt.Errorf("summarize: %w", err)
	}

	summary := domain.DocumentSummary{
		DocumentID:    info.ID,
		Title:         doc.Title,
		Summary:       text,
		DatePublished: info.DatePublished,
		SummaryType:   summaryType,
	}
	if err := p.ledger.SaveDocumentSummary(ctx, summary); err != nil {
		return domain.DocumentSummary{}, fmt.Errorf("persist summary: %w", err)
	}
	return summary, nil
}

func summaryDigest(summary domain.DocumentSummary, info domain.DocumentInfo) domain.Digest {
	return domain.Digest{
		DocumentID:    summary.DocumentID,
		Title:         summary.Title,
		URL:           info.URL,
		Content:       summary.Summary,
		DatePublished: summary.DatePublished,
		SummaryType:   summary.SummaryType,
	}
}
