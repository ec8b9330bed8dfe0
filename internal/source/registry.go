package source

import (
	"context"
	"fmt"
	"log/slog"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Fetcher captures a single document backend (Google Docs, plain web pages, etc.).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, info domain.DocumentInfo) (domain.Document, error)
}

// Registry keeps a mapping from backend names to their implementations.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[string]Fetcher{}}
}

// Register adds or replaces a fetcher implementation.
func (r *Registry) Register(fetcher Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[string]Fetcher{}
	}
	r.fetchers[fetcher.Name()] = fetcher
}

// Resolve returns a fetcher by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Fetcher, error) {
	if fetcher, ok := r.fetchers[name]; ok {
		return fetcher, nil
	}
	return nil, fmt.Errorf("document source %s is not registered", name)
}

// Router implements DocumentSource by dispatching every document to the
// fetcher named in its configuration.
type Router struct {
	registry *Registry
	fallback string
	logger   *slog.Logger
}

var _ ports.DocumentSource = (*Router)(nil)

// NewRouter wires a registry; fallback names the fetcher used when a document
// does not pick one.
func NewRouter(reg *Registry, fallback string, log *slog.Logger) *Router {
	return &Router{
		registry: reg,
		fallback: fallback,
		logger:   log,
	}
}

// Fetch resolves the document's backend and reads it.
func (r *Router) Fetch(ctx context.Context, info domain.DocumentInfo) (domain.Document, error) {
	if r.registry == nil {
		return domain.Document{}, fmt.Errorf("source registry is not configured")
	}

	name := info.Source
	if name == "" {
		name = r.fallback
	}

	fetcher, err := r.registry.Resolve(name)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s: %w", info.ID, err)
	}

	r.debug("fetch document", "document_id", info.ID, "source", name)
	doc, err := fetcher.Fetch(ctx, info)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.ID == "" {
		doc.ID = info.ID
	}
	r.debug("document fetched", "document_id", info.ID, "title", doc.Title, "chars", len(doc.Text))
	return doc, nil
}

func (r *Router) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
