package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the OpenAI chat completions API, or any
// OpenAI-compatible server (LM Studio, vLLM) via a custom base URL.
type OpenAIClient struct {
	client *openai.Client
	name   string
}

// NewOpenAI builds a hosted-API client. baseURL overrides the default
// https://api.openai.com/v1 root; name is the provider label used in logs
// and provenance (e.g. "openai", "lmstudio").
func NewOpenAI(apiKey, baseURL, name string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if name == "" {
		name = "openai"
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), name: name}
}

// Name identifies the backend in provenance annotations and logs.
func (c *OpenAIClient) Name() string { return c.name }

// Generate sends one chat completion request with the prompt as a single user
// message. API errors map to ErrBadStatus, transport errors and context
// expiry to ErrUnreachable, and blank or absent choices to ErrEmptyBody.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s generate: %w: HTTP %d: %s", c.name, ErrBadStatus, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%s generate: %w: %v", c.name, ErrUnreachable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s generate: %w: no choices", c.name, ErrEmptyBody)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s generate: %w", c.name, ErrEmptyBody)
	}
	return content, nil
}
