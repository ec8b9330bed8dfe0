package gdocs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"DocDigest/internal/domain"
)

// Source reads Google Docs through the Docs API using a service account.
type Source struct {
	service *docs.Service
	logger  *slog.Logger
}

// New builds a read-only Docs client. An empty credentials path falls back
// to application default credentials.
func New(ctx context.Context, credentialsFile string, logger *slog.Logger, opts ...option.ClientOption) (*Source, error) {
	opts = append([]option.ClientOption{option.WithScopes(docs.DocumentsReadonlyScope)}, opts...)
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docs.NewService: %w", err)
	}
	return &Source{service: service, logger: logger}, nil
}

// Name identifies the fetcher inside the source registry.
func (s *Source) Name() string {
	return "gdocs"
}

// Fetch loads the document and concatenates the text of every paragraph,
// table cell and table of contents in body order.
func (s *Source) Fetch(ctx context.Context, info domain.DocumentInfo) (domain.Document, error) {
	doc, err := s.service.Documents.Get(info.ID).Context(ctx).Do()
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document %s: %w", info.ID, classify(err))
	}

	var text string
	if doc.Body != nil {
		text = readElements(doc.Body.Content)
	}

	if s.logger != nil {
		s.logger.Debug("google doc fetched", "document_id", info.ID, "title", doc.Title, "chars", len(text))
	}
	return domain.Document{ID: info.ID, Title: doc.Title, Text: text}, nil
}

func readElements(elements []*docs.StructuralElement) string {
	var b strings.Builder
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					b.WriteString(readElements(cell.Content))
				}
			}
		case el.TableOfContents != nil:
			b.WriteString(readElements(el.TableOfContents.Content))
		}
	}
	return b.String()
}

func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%v: %w", err, domain.ErrDocumentNotFound)
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%v: %w", err, domain.ErrAccessDenied)
	case gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}
	return err
}
