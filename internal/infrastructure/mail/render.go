package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"DocDigest/internal/domain"
	"DocDigest/internal/infrastructure/web"
)

const defaultSubject = "Technical Documentation Summary"

var defaultSubjects = map[domain.SummaryType]string{
	domain.SummaryTDD:      defaultSubject,
	domain.SummaryPRD:      "Product Requirements Summary",
	domain.SummaryBiweekly: "Biweekly Update Summary",
}

var bodyTemplate = template.Must(template.New("digest").Parse(`<p>Hi everyone!</p>
<p>Here are AI generated summaries of recent documents to review:</p>
<hr>
{{range .}}<h3>{{.Title}}</h3>
<p><em>Published: {{.DatePublished}}</em></p>
{{if .Content}}{{.Content}}
{{end}}<p>Click <a href="{{.URL}}">here</a> to read.</p>
<hr>
{{end}}<p>A summary is only ever sent once.</p>
`))

type renderedDigest struct {
	Title         string
	DatePublished string
	Content       template.HTML
	URL           string
}

// Message is a rendered e-mail.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns a digest batch into an HTML e-mail with a plain-text part.
type Renderer struct {
	subjects map[domain.SummaryType]string
	markdown goldmark.Markdown
}

// NewRenderer merges configured subjects over the defaults.
func NewRenderer(subjects map[string]string) *Renderer {
	merged := make(map[domain.SummaryType]string, len(defaultSubjects))
	for t, s := range defaultSubjects {
		merged[t] = s
	}
	for t, s := range subjects {
		if s != "" {
			merged[domain.SummaryType(t)] = s
		}
	}
	return &Renderer{
		subjects: merged,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Subject returns the subject line for a batch.
func (r *Renderer) Subject(batch []domain.Digest) string {
	if len(batch) > 0 {
		if s, ok := r.subjects[batch[0].SummaryType]; ok {
			return s
		}
	}
	return defaultSubject
}

// Render builds the complete message.
func (r *Renderer) Render(batch []domain.Digest) (Message, error) {
	items := make([]renderedDigest, 0, len(batch))
	for _, d := range batch {
		var content bytes.Buffer
		if err := r.markdown.Convert([]byte(d.Content), &content); err != nil {
			return Message{}, fmt.Errorf("render %s: %w", d.DocumentID, err)
		}
		items = append(items, renderedDigest{
			Title:         d.Title,
			DatePublished: d.DatePublished,
			Content:       template.HTML(content.String()),
			URL:           documentLink(d),
		})
	}

	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, items); err != nil {
		return Message{}, fmt.Errorf("execute template: %w", err)
	}

	text, err := web.PlainText(body.String())
	if err != nil {
		return Message{}, fmt.Errorf("plain text part: %w", err)
	}

	return Message{Subject: r.Subject(batch), HTML: body.String(), Text: text}, nil
}

func documentLink(d domain.Digest) string {
	if d.URL != "" {
		return d.URL
	}
	return "https://docs.google.com/document/d/" + d.DocumentID
}
