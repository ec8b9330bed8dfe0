package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DocDigest/internal/domain"
	"DocDigest/internal/infrastructure/storage"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, raw)
	require.NoError(t, err)
	return d
}

func TestDetectNoveltyThreshold(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		recorded string
		parsed   string
		wantNew  bool
	}{
		{name: "same date", recorded: "2024-03-01", parsed: "2024-03-01", wantNew: false},
		{name: "next day", recorded: "2024-03-01", parsed: "2024-03-02", wantNew: true},
		{name: "older section", recorded: "2024-03-01", parsed: "2024-02-28", wantNew: false},
		{name: "no ledger entry", parsed: "2024-03-01", wantNew: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ledger := storage.NewMemoryLedger()
			if tc.recorded != "" {
				require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{DocumentID: "doc", SectionDate: day(t, tc.recorded)}))
				require.NoError(t, ledger.MarkSent(ctx, "doc"))
			}

			n, err := DetectNovelty(ctx, ledger, "doc", domain.DocumentSection{Date: day(t, tc.parsed)})
			require.NoError(t, err)
			require.Equal(t, tc.wantNew, n.HasNewSection)
			require.Equal(t, tc.wantNew, n.NeedsSummary())
			require.False(t, n.HasUnsent)
		})
	}
}

func TestDetectNoveltyRecoversUnsent(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewMemoryLedger()
	require.NoError(t, ledger.SaveSection(ctx, domain.SectionRecord{DocumentID: "doc", SectionDate: day(t, "2024-03-01"), Summary: "A"}))

	n, err := DetectNovelty(ctx, ledger, "doc", domain.DocumentSection{Date: day(t, "2024-03-01")})
	require.NoError(t, err)
	require.False(t, n.NeedsSummary())
	require.True(t, n.HasUnsent)
	require.True(t, n.NeedsDelivery())
}
