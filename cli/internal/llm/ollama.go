package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OllamaClient calls a local Ollama server's /api/generate endpoint.
// Zero value is not valid; use NewOllama.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllama builds an Ollama client. baseURL is the API root
// (e.g. http://localhost:11434). If httpClient is nil, a default client with
// a 60s timeout is used; per-call deadlines come from the caller's context.
func NewOllama(baseURL string, httpClient *http.Client) *OllamaClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	return &OllamaClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name identifies the backend in provenance annotations and logs.
func (c *OllamaClient) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate POSTs /api/generate with stream disabled and returns the
// completion text. Connection errors and context expiry map to
// ErrUnreachable, non-200 to ErrBadStatus, undecodable bodies to
// ErrMalformedBody, and blank completions to ErrEmptyBody.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if req.NumCtx > 0 {
		opts["num_ctx"] = req.NumCtx
	}
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: opts,
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama generate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: %w: HTTP %d", ErrBadStatus, resp.StatusCode)
	}

	var body ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("ollama generate: %w: %v", ErrMalformedBody, err)
	}
	if strings.TrimSpace(body.Response) == "" {
		return "", fmt.Errorf("ollama generate: %w", ErrEmptyBody)
	}
	return body.Response, nil
}
