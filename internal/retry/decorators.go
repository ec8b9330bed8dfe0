package retry

import (
	"context"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Summarizer retries the wrapped summarizer under a policy.
type Summarizer struct {
	Next   ports.Summarizer
	Policy Policy
}

var _ ports.Summarizer = Summarizer{}

func (s Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	var summary string
	err := s.Policy.Do(ctx, "summarize", func(ctx context.Context) error {
		var err error
		summary, err = s.Next.Summarize(ctx, text)
		return err
	})
	return summary, err
}

// Source retries document fetches under a policy.
type Source struct {
	Next   ports.DocumentSource
	Policy Policy
}

var _ ports.DocumentSource = Source{}

func (s Source) Fetch(ctx context.Context, info domain.DocumentInfo) (domain.Document, error) {
	var doc domain.Document
	err := s.Policy.Do(ctx, "fetch "+info.ID, func(ctx context.Context) error {
		var err error
		doc, err = s.Next.Fetch(ctx, info)
		return err
	})
	return doc, err
}

// Mailer retries a single address delivery under a policy.
type Mailer struct {
	Next   ports.Mailer
	Policy Policy
}

var _ ports.Mailer = Mailer{}

func (m Mailer) Send(ctx context.Context, address string, batch []domain.Digest) error {
	return m.Policy.Do(ctx, "send "+address, func(ctx context.Context) error {
		return m.Next.Send(ctx, address, batch)
	})
}
