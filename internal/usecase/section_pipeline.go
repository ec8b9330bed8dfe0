package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
	"DocDigest/internal/sections"
)

// SectionPipeline delivers new UPDATE sections of running-log documents.
// A run goes through COLLECT, BUILD_DIGESTS, SEND and COMMIT; sent flags
// are only touched after every subscriber got the batch.
type SectionPipeline struct {
	source     ports.DocumentSource
	ledger     ports.Ledger
	summarizer ports.Summarizer
	deliverer  deliverer
	logger     *slog.Logger
}

// NewSectionPipeline constructs the orchestration component.
func NewSectionPipeline(deps PipelineDeps) *SectionPipeline {
	return &SectionPipeline{
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

// Run executes one batch over every document of the feed. Any error while
// collecting a document aborts the whole run; an oversized section only
// skips its document.
func (p *SectionPipeline) Run(ctx context.Context, feed Feed, opts RunOptions) (Report, error) {
	report := Report{RunID: opts.RunID, Type: feed.Type}
	log := p.logger.With("run_id", opts.RunID, "feed", feed.Type)

	if p.source == nil || p.ledger == nil || p.summarizer == nil {
		return report, fmt.Errorf("section pipeline is not fully configured")
	}

	var candidates []Candidate
	for _, info := range feed.Documents {
		candidate, include, err := p.collect(ctx, log, feed.Type, opts.RunID, info, &report)
		if err != nil {
			return report, fmt.Errorf("document %s: %w", info.ID, err)
		}
		if include {
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		log.Info("no new updates to send")
		return report, nil
	}

	batch, err := BuildDigests(ctx, p.ledger, feed.Type, candidates)
	if err != nil {
		return report, fmt.Errorf("build digests: %w", err)
	}
	if len(batch) == 0 {
		log.Info("delivery set has nothing unsent")
		return report, nil
	}

	commit := func(ctx context.Context) error {
		for _, c := range candidates {
			if err := p.ledger.MarkSent(ctx, c.Info.ID); err != nil {
				return fmt.Errorf("mark %s sent: %w", c.Info.ID, err)
			}
		}
		return nil
	}

	if err := p.deliverer.deliver(ctx, log, feed, opts, batch, &report, commit); err != nil {
		return report, err
	}
	return report, nil
}

func (p *SectionPipeline) collect(ctx context.Context, log *slog.Logger, summaryType domain.SummaryType, runID string, info domain.DocumentInfo, report *Report) (Candidate, bool, error) {
	candidate := Candidate{Info: info}

	doc, err := p.source.Fetch(ctx, info)
	if err != nil {
		return candidate, false, fmt.Errorf("fetch: %w", err)
	}
	candidate.Title = doc.Title

	latest, ok, err := sections.Latest(doc.Text)
	if err != nil {
		return candidate, false, fmt.Errorf("parse sections: %w", err)
	}
	if !ok {
		return candidate, false, domain.ErrNoSections
	}

	novelty, err := DetectNovelty(ctx, p.ledger, info.ID, latest)
	if err != nil {
		return candidate, false, err
	}

	if novelty.NeedsSummary() {
		log.Info("found new section", "document_id", info.ID, "section_date", latest.DateString())

		summary, err := p.summarizer.Summarize(ctx, latest.Content)
		if errors.Is(err, domain.ErrContentTooLarge) {
			log.Warn("skipping document, section too large to summarize", "document_id", info.ID, "section_date", latest.DateString())
			report.Skipped = append(report.Skipped, info.ID)
			return candidate, false, nil
		}
		if err != nil {
			return candidate, false, fmt.Errorf("summarize section %s: %w", latest.DateString(), err)
		}

		err = p.ledger.SaveSection(ctx, domain.SectionRecord{
			DocumentID:  info.ID,
			SectionDate: latest.Date,
			Content:     latest.RawContent,
			Summary:     summary,
		})
		if err != nil {
			return candidate, false, fmt.Errorf("persist section %s: %w", latest.DateString(), err)
		}
		report.Summarized = append(report.Summarized, info.ID)

		p.deliverer.publish(ctx, log, domain.Event{
			Type:        domain.EventSectionSummarized,
			RunID:       runID,
			DocumentID:  info.ID,
			SummaryType: summaryType,
			SectionDate: latest.DateString(),
		})
	} else if novelty.HasUnsent {
		log.Info("resending unsent sections from an earlier run", "document_id", info.ID)
	} else {
		log.Debug("no new sections", "document_id", info.ID)
	}

	return candidate, novelty.NeedsDelivery(), nil
}
