package gdocs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"DocDigest/internal/domain"
)

const documentJSON = `{
  "documentId": "doc-ok",
  "title": "Platform running log",
  "body": {"content": [
    {"paragraph": {"elements": [{"textRun": {"content": "--- UPDATE 2024-03-15 ---\n"}}]}},
    {"paragraph": {"elements": [{"textRun": {"content": "shipped "}}, {"textRun": {"content": "auth\n"}}]}},
    {"table": {"tableRows": [{"tableCells": [
      {"content": [{"paragraph": {"elements": [{"textRun": {"content": "cell a\n"}}]}}]},
      {"content": [{"paragraph": {"elements": [{"textRun": {"content": "cell b\n"}}]}}]}
    ]}]}}
  ]}
}`

func TestSourceFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/documents/doc-ok"):
			_, _ = w.Write([]byte(documentJSON))
		case strings.HasSuffix(r.URL.Path, "/documents/doc-private"):
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
		case strings.HasSuffix(r.URL.Path, "/documents/doc-throttled"):
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
		}
	}))
	defer server.Close()

	ctx := context.Background()
	src, err := New(ctx, "", nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	doc, err := src.Fetch(ctx, domain.DocumentInfo{ID: "doc-ok"})
	require.NoError(t, err)
	require.Equal(t, "Platform running log", doc.Title)
	require.Equal(t, "--- UPDATE 2024-03-15 ---\nshipped auth\ncell a\ncell b\n", doc.Text)

	_, err = src.Fetch(ctx, domain.DocumentInfo{ID: "doc-private"})
	require.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = src.Fetch(ctx, domain.DocumentInfo{ID: "doc-throttled"})
	require.ErrorIs(t, err, domain.ErrTransient)

	_, err = src.Fetch(ctx, domain.DocumentInfo{ID: "doc-gone"})
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestReadElementsTableOfContents(t *testing.T) {
	t.Parallel()

	text := readElements([]*docs.StructuralElement{
		{TableOfContents: &docs.TableOfContents{Content: []*docs.StructuralElement{
			{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{{TextRun: &docs.TextRun{Content: "Contents\n"}}}}},
		}}},
		{SectionBreak: &docs.SectionBreak{}},
	})
	require.Equal(t, "Contents\n", text)
}

func TestClassifyLeavesOtherErrors(t *testing.T) {
	t.Parallel()

	plain := errors.New("dial tcp: refused")
	require.Same(t, plain, classify(plain))

	bad := &googleapi.Error{Code: http.StatusBadRequest}
	require.Equal(t, bad, classify(bad))

	wrapped := classify(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusBadGateway}))
	require.ErrorIs(t, wrapped, domain.ErrTransient)
}
