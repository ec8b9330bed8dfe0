package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

const previewChars = 200

// WritePreview prints what a delivery would send and to whom.
func WritePreview(w io.Writer, batch []domain.Digest, recipients []string) {
	fmt.Fprintln(w, "\n=== EMAIL PREVIEW ===")
	fmt.Fprintf(w, "Would send %d summaries:\n", len(batch))
	for _, d := range batch {
		fmt.Fprintf(w, "\nTitle: %s\n", d.Title)
		fmt.Fprintf(w, "Date: %s\n", d.DatePublished)
		fmt.Fprintf(w, "Content preview: %s...\n", truncate(d.Content, previewChars))
	}

	fmt.Fprintln(w, "\nRecipients:")
	for _, r := range recipients {
		fmt.Fprintf(w, "- %s\n", r)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// PromptConfirmer shows the preview on out and reads a Y/N answer from in.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ ports.Confirmer = (*PromptConfirmer)(nil)

// NewPromptConfirmer wires the terminal streams.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm returns true only for an explicit "Y".
func (c *PromptConfirmer) Confirm(_ context.Context, batch []domain.Digest, recipients []string) (bool, error) {
	WritePreview(c.out, batch, recipients)
	fmt.Fprint(c.out, "\nSend these emails? (Y/N): ")

	answer, err := readLine(c.in)
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.EqualFold(answer, "y"), nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
