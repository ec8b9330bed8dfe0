package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Pipeline is one way of turning a feed into delivered digests.
type Pipeline interface {
	Run(ctx context.Context, feed Feed, opts RunOptions) (Report, error)
}

// Runner routes feeds to their pipeline and keeps runs inside one process
// from overlapping. Overlap across processes must be prevented by the operator.
type Runner struct {
	feeds     map[domain.SummaryType]Feed
	sectioned Pipeline
	whole     Pipeline
	ledger    ports.Ledger
	lock      *semaphore.Weighted
	logger    *slog.Logger
}

// NewRunner builds a runner over the configured feeds.
func NewRunner(feeds []Feed, sectioned, whole Pipeline, ledger ports.Ledger, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	byType := make(map[domain.SummaryType]Feed, len(feeds))
	for _, f := range feeds {
		byType[f.Type] = f
	}
	return &Runner{
		feeds:     byType,
		sectioned: sectioned,
		whole:     whole,
		ledger:    ledger,
		lock:      semaphore.NewWeighted(1),
		logger:    logger,
	}
}

// Feeds lists the configured summary types.
func (r *Runner) Feeds() []domain.SummaryType {
	types := make([]domain.SummaryType, 0, len(r.feeds))
	for _, t := range []domain.SummaryType{domain.SummaryTDD, domain.SummaryPRD, domain.SummaryBiweekly} {
		if _, ok := r.feeds[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Feed returns the configuration of one summary type.
func (r *Runner) Feed(summaryType domain.SummaryType) (Feed, bool) {
	f, ok := r.feeds[summaryType]
	return f, ok
}

// Run executes one feed. It fails fast with domain.ErrRunInProgress when
// another run holds the lock.
func (r *Runner) Run(ctx context.Context, summaryType domain.SummaryType, opts RunOptions) (Report, error) {
	feed, ok := r.feeds[summaryType]
	if !ok {
		return Report{}, fmt.Errorf("feed %s is not configured", summaryType)
	}

	pipeline := r.whole
	if summaryType.Sectioned() {
		pipeline = r.sectioned
	}
	if pipeline == nil {
		return Report{}, fmt.Errorf("no pipeline for feed %s", summaryType)
	}

	if !r.lock.TryAcquire(1) {
		return Report{}, domain.ErrRunInProgress
	}
	defer r.lock.Release(1)

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	if err := r.ledger.Init(ctx); err != nil {
		return Report{RunID: opts.RunID, Type: summaryType}, fmt.Errorf("init ledger: %w", err)
	}

	started := time.Now()
	r.logger.Info("run started", "run_id", opts.RunID, "feed", summaryType, "documents", len(feed.Documents), "dry_run", opts.DryRun)

	report, err := pipeline.Run(ctx, feed, opts)
	if err != nil {
		r.logger.Error("run failed", "run_id", opts.RunID, "feed", summaryType, "error", err, "elapsed", time.Since(started))
		return report, err
	}

	r.logger.Info("run finished",
		"run_id", opts.RunID,
		"feed", summaryType,
		"summarized", len(report.Summarized),
		"skipped", len(report.Skipped),
		"delivered", len(report.Delivered),
		"elapsed", time.Since(started),
	)
	return report, nil
}

// RunAll executes every configured feed in order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, opts RunOptions) error {
	for _, t := range r.Feeds() {
		runOpts := opts
		runOpts.RunID = ""
		if _, err := r.Run(ctx, t, runOpts); err != nil {
			return fmt.Errorf("feed %s: %w", t, err)
		}
	}
	return nil
}
