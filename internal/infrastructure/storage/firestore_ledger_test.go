package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"DocDigest/internal/domain"
)

// newEmulatorLedger returns a Firestore ledger on the emulator with collections
// unique to the test, or nil when FIRESTORE_EMULATOR_HOST is unset.
func newEmulatorLedger(t *testing.T) *FirestoreLedger {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		return nil
	}

	client, err := firestore.NewClient(context.Background(), "docdigest-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewFirestoreLedger(client, "test_"+uuid.NewString()+"_")
}

func TestSectionKeyIsStablePerDate(t *testing.T) {
	t.Parallel()

	a := sectionKey("doc-1", date(t, "2024-03-15"))
	b := sectionKey("doc-1", date(t, "2024-03-15"))
	c := sectionKey("doc-1", date(t, "2024-03-16"))

	require.Equal(t, "doc-1_2024-03-15", a)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestQueryErrorPointsAtMissingIndex(t *testing.T) {
	t.Parallel()

	missing := status.Error(codes.FailedPrecondition, "The query requires an index.")
	err := queryError("query unsent", missing)
	require.ErrorContains(t, err, "deploy/firestore.indexes.json")
	require.Equal(t, codes.FailedPrecondition, status.Code(errors.Unwrap(err)))

	other := queryError("query unsent", status.Error(codes.Unavailable, "down"))
	require.NotContains(t, other.Error(), "index")
}

func TestFirestoreLedgerIsolatedByPrefix(t *testing.T) {
	ledger := newEmulatorLedger(t)
	if ledger == nil {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}
	other := NewFirestoreLedger(ledger.client, "test_"+uuid.NewString()+"_")
	ctx := context.Background()

	require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{
		DocumentID:  "doc-1",
		SectionDate: date(t, "2024-03-15"),
		Summary:     "summary",
	}))

	_, ok, err := other.LatestSectionDate(ctx, "doc-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, ledger.Reset(ctx))
	_, ok, err = ledger.LatestSectionDate(ctx, "doc-1")
	require.NoError(t, err)
	require.False(t, ok)
}
