package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

type record struct {
	RunID       string             `json:"run_id"`
	SummaryType domain.SummaryType `json:"summary_type"`
	ArchivedAt  time.Time          `json:"archived_at"`
	Digests     []domain.Digest    `json:"digests"`
}

// GCSArchive writes every delivered batch as one JSON object to a bucket.
type GCSArchive struct {
	bucket *storage.BucketHandle
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.Archive = (*GCSArchive)(nil)

// NewGCSArchive wires a bucket handle; prefix is prepended to object names.
func NewGCSArchive(client *storage.Client, bucket, prefix string, logger *slog.Logger) *GCSArchive {
	return &GCSArchive{
		bucket: client.Bucket(bucket),
		prefix: prefix,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Store writes the batch only if the object does not exist yet.
func (a *GCSArchive) Store(ctx context.Context, runID string, summaryType domain.SummaryType, batch []domain.Digest) error {
	archivedAt := a.now()
	name := objectName(a.prefix, summaryType, archivedAt, runID)

	payload, err := json.MarshalIndent(record{
		RunID:       runID,
		SummaryType: summaryType,
		ArchivedAt:  archivedAt,
		Digests:     batch,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive record: %w", err)
	}

	writer := a.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(payload); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			a.debug("archive object already exists", "object", name)
			return nil
		}
		return fmt.Errorf("finalize %s: %w", name, err)
	}

	a.debug("batch archived", "object", name, "digests", len(batch))
	return nil
}

func objectName(prefix string, summaryType domain.SummaryType, at time.Time, runID string) string {
	return path.Join(prefix, string(summaryType), at.Format(domain.DateLayout), runID+".json")
}

func (a *GCSArchive) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
