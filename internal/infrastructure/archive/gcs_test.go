package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DocDigest/internal/domain"
)

func TestObjectName(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, time.March, 15, 22, 10, 0, 0, time.UTC)

	require.Equal(t, "digests/BIWEEKLY/2024-03-15/run-1.json", objectName("digests", domain.SummaryBiweekly, at, "run-1"))
	require.Equal(t, "TDD/2024-03-15/run-2.json", objectName("", domain.SummaryTDD, at, "run-2"))
	require.Equal(t, "a/b/PRD/2024-03-15/r.json", objectName("a/b/", domain.SummaryPRD, at, "r"))
}
