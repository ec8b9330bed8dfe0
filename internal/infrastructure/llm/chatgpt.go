package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DocDigest/internal/config"
	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// SummaryPrompt precedes the text handed to every model.
const SummaryPrompt = "As a professional summarizer, write a concise summary of the text below.\n" +
	"If the text names its authors, start with a line: Author(s): Name(s)\n" +
	"Be thorough and detailed yet clear, keeping the main ideas and essential facts " +
	"and leaving out filler.\n" +
	"Use only the provided text, never outside knowledge.\n" +
	"Format the output as markdown and bold key subjects and areas that may need more detail.\n" +
	"Text:\n"

// ChatSummarizer implements ports.Summarizer backed by OpenAI-compatible
// chat completion APIs, including Azure OpenAI deployments.
type ChatSummarizer struct {
	endpoint     string
	model        string
	apiKey       string
	azure        bool
	systemPrompt string
	maxTokens    int
	httpClient   *http.Client
}

var _ ports.Summarizer = (*ChatSummarizer)(nil)

// NewChatSummarizer builds a client from configuration.
func NewChatSummarizer(cfg config.SummarizerConfig) *ChatSummarizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatSummarizer{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		azure:        cfg.Provider == config.ProviderAzure,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize posts the text as a user message and returns the markdown reply.
func (c *ChatSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chat summarizer is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || (!c.azure && c.model == "") {
		return "", fmt.Errorf("chat summarizer misconfigured")
	}

	payload := chatRequest{MaxTokens: c.maxTokens}
	if !c.azure {
		payload.Model = c.model
	}
	if prompt := strings.TrimSpace(c.systemPrompt); prompt != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: prompt})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: SummaryPrompt + text})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	if c.azure {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send summary request: %v: %w", err, domain.ErrTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", classifyChatError(resp, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	summary := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("chat response is empty")
	}
	return summary, nil
}

func classifyChatError(resp *http.Response, body string) error {
	err := fmt.Errorf("chat error %s: %s", resp.Status, body)
	switch {
	case strings.Contains(body, "context_length_exceeded"):
		return fmt.Errorf("%v: %w", err, domain.ErrContentTooLarge)
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%v: %w", err, domain.ErrContentTooLarge)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}
	return err
}
