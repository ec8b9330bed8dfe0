package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"DocDigest/internal/config"
	"DocDigest/internal/infrastructure/archive"
	"DocDigest/internal/infrastructure/events"
	"DocDigest/internal/infrastructure/gdocs"
	"DocDigest/internal/infrastructure/httpapi"
	"DocDigest/internal/infrastructure/llm"
	"DocDigest/internal/infrastructure/mail"
	"DocDigest/internal/infrastructure/scheduler"
	infrastorage "DocDigest/internal/infrastructure/storage"
	"DocDigest/internal/infrastructure/web"
	"DocDigest/internal/logging"
	"DocDigest/internal/ports"
	"DocDigest/internal/retry"
	"DocDigest/internal/source"
	"DocDigest/internal/usecase"
)

// Options carries wiring decided by the caller rather than by configuration.
type Options struct {
	// Confirmer, when set, must approve every batch before it is sent.
	Confirmer ports.Confirmer
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	runner  *usecase.Runner
	closers []func() error
}

// New builds every adapter named by the configuration.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger}
	if err := a.wire(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(ctx context.Context, opts Options) error {
	ledger, closeLedger, err := OpenLedger(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeLedger)

	feeds, err := buildFeeds(a.cfg)
	if err != nil {
		return err
	}

	policy := retry.Policy{
		MaxAttempts:     a.cfg.Retry.MaxAttempts,
		InitialInterval: a.cfg.Retry.InitialInterval,
		MaxInterval:     a.cfg.Retry.MaxInterval,
		Multiplier:      a.cfg.Retry.Multiplier,
		Logger:          a.logger.With("component", "retry"),
	}

	docSource, err := a.buildSource(ctx, feeds)
	if err != nil {
		return err
	}

	summarizer, err := a.buildSummarizer(ctx)
	if err != nil {
		return err
	}

	deps := usecase.PipelineDeps{
		Source:     retry.Source{Next: docSource, Policy: policy},
		Ledger:     ledger,
		Summarizer: retry.Summarizer{Next: summarizer, Policy: policy},
		Confirmer:  opts.Confirmer,
	}

	if a.cfg.Email.SendGridAPIKey != "" && a.cfg.Email.FromAddress != "" {
		mailer := mail.NewSendGridMailer(
			a.cfg.Email.SendGridAPIKey,
			a.cfg.Email.FromName,
			a.cfg.Email.FromAddress,
			mail.NewRenderer(a.cfg.Email.Subjects),
			a.logger.With("component", "mailer"),
		)
		deps.Mailer = retry.Mailer{Next: mailer, Policy: policy}
	} else {
		a.logger.Warn("email delivery is not configured, only dry runs can succeed")
	}

	if a.cfg.Archive.Bucket != "" {
		client, err := storage.NewClient(ctx, googleOptions(a.cfg)...)
		if err != nil {
			return fmt.Errorf("storage.NewClient: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		deps.Archive = archive.NewGCSArchive(client, a.cfg.Archive.Bucket, a.cfg.Archive.Prefix, a.logger.With("component", "archive"))
	}

	if len(a.cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
		a.closers = append(a.closers, publisher.Close)
		deps.Events = publisher
	}

	sectionDeps := deps
	sectionDeps.Logger = a.logger.With("component", "pipeline.sections")
	documentDeps := deps
	documentDeps.Logger = a.logger.With("component", "pipeline.documents")

	a.runner = usecase.NewRunner(
		feeds,
		usecase.NewSectionPipeline(sectionDeps),
		usecase.NewDocumentPipeline(documentDeps),
		ledger,
		a.logger.With("component", "runner"),
	)
	return nil
}

// OpenLedger connects the configured ledger backend.
func OpenLedger(ctx context.Context, cfg config.Config) (ports.Ledger, func() error, error) {
	switch cfg.Ledger.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		ledger, err := infrastorage.Open(cfg.Ledger.Driver, cfg.Ledger.DSN)
		if err != nil {
			return nil, nil, err
		}
		return ledger, ledger.Close, nil
	case config.DriverFirestore:
		client, err := firestore.NewClient(ctx, cfg.Google.Project, googleOptions(cfg)...)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore.NewClient: %w", err)
		}
		return infrastorage.NewFirestoreLedger(client, cfg.Ledger.CollectionPrefix), client.Close, nil
	case config.DriverMemory:
		return infrastorage.NewMemoryLedger(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
}

func buildFeeds(cfg config.Config) ([]usecase.Feed, error) {
	feeds := make([]usecase.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		infos, err := f.DocumentInfos()
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", f.Type, err)
		}
		feeds = append(feeds, usecase.Feed{
			Type:        f.SummaryType(),
			Documents:   infos,
			Subscribers: f.Subscribers,
		})
	}
	return feeds, nil
}

func (a *Application) buildSource(ctx context.Context, feeds []usecase.Feed) (ports.DocumentSource, error) {
	registry := source.NewRegistry()
	registry.Register(web.NewPageSource(nil, a.logger.With("component", "source.web")))

	if usesSource(feeds, config.SourceGoogleDocs) {
		docs, err := gdocs.New(ctx, a.cfg.Google.CredentialsFile, a.logger.With("component", "source.gdocs"))
		if err != nil {
			return nil, err
		}
		registry.Register(docs)
	}

	return source.NewRouter(registry, config.SourceGoogleDocs, a.logger.With("component", "source")), nil
}

func usesSource(feeds []usecase.Feed, name string) bool {
	for _, f := range feeds {
		for _, d := range f.Documents {
			if d.Source == name {
				return true
			}
		}
	}
	return false
}

func (a *Application) buildSummarizer(ctx context.Context) (ports.Summarizer, error) {
	cfg := a.cfg.Summarizer
	switch cfg.Provider {
	case config.ProviderVertex:
		if cfg.Project == "" {
			cfg.Project = a.cfg.Google.Project
		}
		vertex, err := llm.NewVertexSummarizer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, vertex.Close)
		return vertex, nil
	default:
		return llm.NewChatSummarizer(cfg), nil
	}
}

func googleOptions(cfg config.Config) []option.ClientOption {
	if cfg.Google.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.Google.CredentialsFile)}
}

// Runner exposes the run entry point.
func (a *Application) Runner() *usecase.Runner {
	return a.runner
}

// Serve exposes the HTTP control surface and, when configured, the interval
// scheduler until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewHandler(a.runner, a.logger.With("component", "http"), 0),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	var sched *usecase.Scheduler
	if a.cfg.Scheduler.Interval > 0 {
		driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.RunAtStart)
		sched = usecase.NewScheduler(driver, a.runner, a.logger.With("component", "scheduler"))
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.logger.Error("scheduler shutdown", "error", err)
		}
	}
	return serveErr
}

// Close releases every client in reverse order of creation.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
