package mail

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/require"

	"DocDigest/internal/domain"
)

type fakeClient struct {
	sent []*sgmail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeClient) SendWithContext(_ context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func sampleBatch() []domain.Digest {
	return []domain.Digest{
		{
			DocumentID:    "abc",
			Title:         "Platform <log>",
			Content:       "Update 2024-03-15:\n**Auth** shipped",
			DatePublished: "2024-03-15",
			SummaryType:   domain.SummaryBiweekly,
		},
		{
			DocumentID:    "def",
			Title:         "Data log",
			URL:           "https://example.com/data",
			Content:       "Update 2024-03-14:\nbackfill done",
			DatePublished: "2024-03-14",
			SummaryType:   domain.SummaryBiweekly,
		},
	}
}

func TestRendererRender(t *testing.T) {
	t.Parallel()

	msg, err := NewRenderer(nil).Render(sampleBatch())
	require.NoError(t, err)

	require.Equal(t, "Biweekly Update Summary", msg.Subject)
	require.Contains(t, msg.HTML, "<h3>Platform &lt;log&gt;</h3>")
	require.Contains(t, msg.HTML, "<em>Published: 2024-03-15</em>")
	require.Contains(t, msg.HTML, "<strong>Auth</strong>")
	require.Contains(t, msg.HTML, `href="https://docs.google.com/document/d/abc"`)
	require.Contains(t, msg.HTML, `href="https://example.com/data"`)
	require.Contains(t, msg.HTML, "A summary is only ever sent once.")
	require.Less(t, strings.Index(msg.HTML, "Platform"), strings.Index(msg.HTML, "Data log"))

	require.Contains(t, msg.Text, "Platform <log>")
	require.Contains(t, msg.Text, "Auth shipped")
	require.NotContains(t, msg.Text, "<strong>")
}

func TestRendererSubjectOverrides(t *testing.T) {
	t.Parallel()

	r := NewRenderer(map[string]string{"TDD": "Design docs this week"})
	require.Equal(t, "Design docs this week", r.Subject([]domain.Digest{{SummaryType: domain.SummaryTDD}}))
	require.Equal(t, "Product Requirements Summary", r.Subject([]domain.Digest{{SummaryType: domain.SummaryPRD}}))
	require.Equal(t, defaultSubject, r.Subject(nil))
}

func TestSendGridMailerSend(t *testing.T) {
	t.Parallel()

	client := &fakeClient{resp: &rest.Response{StatusCode: http.StatusAccepted}}
	m := NewSendGridMailerWithClient(client, "Doc Digest", "digest@example.com", nil, nil)

	require.NoError(t, m.Send(context.Background(), "reader@example.com", sampleBatch()))
	require.Len(t, client.sent, 1)

	email := client.sent[0]
	require.Equal(t, "digest@example.com", email.From.Address)
	require.Equal(t, "Biweekly Update Summary", email.Subject)
	require.Len(t, email.Personalizations, 1)
	require.Equal(t, "reader@example.com", email.Personalizations[0].To[0].Address)
	require.Len(t, email.Content, 2)
	require.Equal(t, "text/plain", email.Content[0].Type)
	require.Equal(t, "text/html", email.Content[1].Type)
}

func TestSendGridMailerErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	throttled := NewSendGridMailerWithClient(&fakeClient{resp: &rest.Response{StatusCode: http.StatusTooManyRequests}}, "", "digest@example.com", nil, nil)
	require.ErrorIs(t, throttled.Send(ctx, "a@example.com", sampleBatch()), domain.ErrTransient)

	rejected := NewSendGridMailerWithClient(&fakeClient{resp: &rest.Response{StatusCode: http.StatusBadRequest, Body: "bad to"}}, "", "digest@example.com", nil, nil)
	err := rejected.Send(ctx, "a@example.com", sampleBatch())
	require.ErrorContains(t, err, "bad to")
	require.NotErrorIs(t, err, domain.ErrTransient)

	broken := NewSendGridMailerWithClient(&fakeClient{err: errors.New("connection reset")}, "", "digest@example.com", nil, nil)
	require.ErrorIs(t, broken.Send(ctx, "a@example.com", sampleBatch()), domain.ErrTransient)

	unconfigured := NewSendGridMailerWithClient(&fakeClient{}, "", "", nil, nil)
	require.ErrorContains(t, unconfigured.Send(ctx, "a@example.com", sampleBatch()), "misconfigured")
}
