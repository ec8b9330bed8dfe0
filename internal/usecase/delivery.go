package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Feed is one configured summary type with its documents and subscribers.
type Feed struct {
	Type        domain.SummaryType
	Documents   []domain.DocumentInfo
	Subscribers []string
}

// RunOptions tune a single run.
type RunOptions struct {
	RunID string
	// DryRun collects and builds digests but never sends or commits.
	DryRun bool
}

// Report describes what a run did.
type Report struct {
	RunID      string             `json:"run_id"`
	Type       domain.SummaryType `json:"type"`
	Summarized []string           `json:"summarized"`
	Skipped    []string           `json:"skipped"`
	Delivered  []string           `json:"delivered"`
	Recipients int                `json:"recipients"`
	DryRun     bool               `json:"dry_run"`
	Declined   bool               `json:"declined"`
	Digests    []domain.Digest    `json:"-"`
}

// PipelineDeps wires all driven adapters into the pipelines.
type PipelineDeps struct {
	Source     ports.DocumentSource
	Ledger     ports.Ledger
	Summarizer ports.Summarizer
	Mailer     ports.Mailer
	Confirmer  ports.Confirmer
	Archive    ports.Archive
	Events     ports.EventPublisher
	Logger     *slog.Logger
}

func (d PipelineDeps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// deliverer implements the SEND and COMMIT steps shared by both pipelines.
type deliverer struct {
	mailer    ports.Mailer
	confirmer ports.Confirmer
	archive   ports.Archive
	events    ports.EventPublisher
}

// deliver mails the whole batch to every subscriber and only then calls commit.
// A failed send returns before any commit so the batch is retried next run.
func (d deliverer) deliver(ctx context.Context, log *slog.Logger, feed Feed, opts RunOptions, batch []domain.Digest, report *Report, commit func(context.Context) error) error {
	report.Digests = batch

	if opts.DryRun {
		report.DryRun = true
		log.Info("dry run, nothing sent", "digests", len(batch), "recipients", len(feed.Subscribers))
		return nil
	}

	if d.confirmer != nil {
		ok, err := d.confirmer.Confirm(ctx, batch, feed.Subscribers)
		if err != nil {
			return fmt.Errorf("confirm delivery: %w", err)
		}
		if !ok {
			report.Declined = true
			log.Info("delivery declined")
			return nil
		}
	}

	if d.mailer == nil {
		return fmt.Errorf("mailer is not configured")
	}
	if len(feed.Subscribers) == 0 {
		return fmt.Errorf("feed %s has no subscribers", feed.Type)
	}

	for _, address := range feed.Subscribers {
		log.Info("sending digest", "recipient", address, "digests", len(batch))
		if err := d.mailer.Send(ctx, address, batch); err != nil {
			return fmt.Errorf("send digest to %s: %w", address, err)
		}
	}
	report.Recipients = len(feed.Subscribers)

	if err := commit(ctx); err != nil {
		return fmt.Errorf("commit sent flags: %w", err)
	}

	if d.archive != nil {
		if err := d.archive.Store(ctx, opts.RunID, feed.Type, batch); err != nil {
			log.Warn("archive digest batch", "error", err)
		}
	}

	for _, digest := range batch {
		report.Delivered = append(report.Delivered, digest.DocumentID)
		d.publish(ctx, log, domain.Event{
			Type:        domain.EventDigestDelivered,
			RunID:       opts.RunID,
			DocumentID:  digest.DocumentID,
			SummaryType: feed.Type,
			SectionDate: digest.DatePublished,
			Recipients:  len(feed.Subscribers),
		})
	}
	return nil
}

func (d deliverer) publish(ctx context.Context, log *slog.Logger, event domain.Event) {
	if d.events == nil {
		return
	}
	if err := d.events.Publish(ctx, event); err != nil {
		log.Warn("publish event", "type", event.Type, "document_id", event.DocumentID, "error", err)
	}
}
