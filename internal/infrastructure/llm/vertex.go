package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"DocDigest/internal/config"
	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// VertexSummarizer implements ports.Summarizer with a Gemini model on Vertex AI.
type VertexSummarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ ports.Summarizer = (*VertexSummarizer)(nil)

// NewVertexSummarizer creates the client and configures the model.
func NewVertexSummarizer(ctx context.Context, cfg config.SummarizerConfig) (*VertexSummarizer, error) {
	if cfg.Project == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex summarizer: project and region cannot be empty")
	}

	client, err := genai.NewClient(ctx, cfg.Project, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	model := client.GenerativeModel(modelName)
	if prompt := strings.TrimSpace(cfg.SystemPrompt); prompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt)}}
	}
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	model.SetTemperature(0.2)

	return &VertexSummarizer{client: client, model: model}, nil
}

// Summarize sends the prompt plus text and returns the model's markdown.
func (v *VertexSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(SummaryPrompt+text))
	if err != nil {
		return "", classifyVertexError(err)
	}

	summary := responseText(resp)
	if summary == "" {
		return "", fmt.Errorf("gemini response is empty")
	}
	return summary, nil
}

// Close releases the underlying client.
func (v *VertexSummarizer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

func classifyVertexError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("generate content: %w", err)
	}

	switch st.Code() {
	case codes.InvalidArgument:
		msg := strings.ToLower(st.Message())
		if strings.Contains(msg, "token") && (strings.Contains(msg, "exceed") || strings.Contains(msg, "limit")) {
			return fmt.Errorf("generate content: %v: %w", err, domain.ErrContentTooLarge)
		}
	case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
		return fmt.Errorf("generate content: %v: %w", err, domain.ErrTransient)
	}
	return fmt.Errorf("generate content: %w", err)
}
