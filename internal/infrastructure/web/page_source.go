package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DocDigest/internal/domain"
)

// blockElements start a new line when flattening HTML to text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// PageSource reads documents published as plain HTML pages, such as
// exported or "published to the web" running logs.
type PageSource struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewPageSource wires an HTTP client; a nil client gets a 20s timeout.
func NewPageSource(client *http.Client, logger *slog.Logger) *PageSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageSource{client: client, userAgent: "DocDigest/1.0", logger: logger}
}

// Name identifies the fetcher inside the source registry.
func (p *PageSource) Name() string {
	return "web"
}

// Fetch downloads the page behind info.URL and flattens it to text.
func (p *PageSource) Fetch(ctx context.Context, info domain.DocumentInfo) (domain.Document, error) {
	if info.URL == "" {
		return domain.Document{}, fmt.Errorf("document %s has no url", info.ID)
	}

	doc, err := p.fetchDocument(ctx, info.URL)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s: %w", info.ID, err)
	}

	doc.Find("script, style, noscript, template").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = info.ID
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := ExtractText(body)

	if p.logger != nil {
		p.logger.Debug("page fetched", "document_id", info.ID, "title", title, "chars", len(text))
	}

	return domain.Document{ID: info.ID, Title: title, Text: text}, nil
}

func (p *PageSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %v: %w", err, domain.ErrTransient)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("page returned %s: %w", resp.Status, domain.ErrDocumentNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("page returned %s: %w", resp.Status, domain.ErrAccessDenied)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("page returned %s: %w", resp.Status, domain.ErrTransient)
	default:
		return fmt.Errorf("page returned %s", resp.Status)
	}
}

// ExtractText flattens a selection into trimmed lines, one per block element.
func ExtractText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			if name == "#text" {
				b.WriteString(c.Text())
				return
			}
			block := blockElements[name]
			if block {
				b.WriteString("\n")
			}
			walk(c)
			if block {
				b.WriteString("\n")
			}
		})
	}
	walk(sel)

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// PlainText renders an HTML fragment as text.
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return ExtractText(doc.Selection), nil
}
