package usecase

import (
	"context"
	"fmt"
	"sync"

	"DocDigest/internal/domain"
)

type fakeSource struct {
	docs map[string]domain.Document
	errs map[string]error
}

func (f *fakeSource) Fetch(_ context.Context, info domain.DocumentInfo) (domain.Document, error) {
	if err, ok := f.errs[info.ID]; ok {
		return domain.Document{}, err
	}
	doc, ok := f.docs[info.ID]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, info.ID)
	}
	doc.ID = info.ID
	return doc, nil
}

type fakeSummarizer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if err, ok := f.fail[text]; ok {
		return "", err
	}
	return "summary of " + text, nil
}

type sentMail struct {
	address string
	batch   []domain.Digest
}

type fakeMailer struct {
	sent   []sentMail
	failAt map[string]error
}

func (f *fakeMailer) Send(_ context.Context, address string, batch []domain.Digest) error {
	if err, ok := f.failAt[address]; ok {
		return err
	}
	f.sent = append(f.sent, sentMail{address: address, batch: batch})
	return nil
}

type fakeConfirmer struct {
	answer bool
	seen   int
}

func (f *fakeConfirmer) Confirm(_ context.Context, batch []domain.Digest, _ []string) (bool, error) {
	f.seen = len(batch)
	return f.answer, nil
}

type fakeEvents struct {
	events []domain.Event
}

func (f *fakeEvents) Publish(_ context.Context, event domain.Event) error {
	f.events = append(f.events, event)
	return nil
}

type fakeArchive struct {
	stored  int
	err     error
	onStore func(context.Context)
}

func (f *fakeArchive) Store(ctx context.Context, _ string, _ domain.SummaryType, _ []domain.Digest) error {
	f.stored++
	if f.onStore != nil {
		f.onStore(ctx)
	}
	return f.err
}
