// Package llm defines the generation contract: one request, one completion or
// a typed failure. Adapters for the supported backends (Ollama, OpenAI and
// OpenAI-compatible servers, Anthropic) live in this package behind the
// Client interface; backend selection is a configuration concern.
//
// Clients never retry internally. Retry policy belongs to the caller so CLI
// latency stays bounded and predictable.
package llm

import (
	"context"
	"errors"
	"time"
)

// Request is one completion request. Value object; one per Generate call.
type Request struct {
	Model       string
	Prompt      string
	Temperature float64
	// NumCtx is the context-window size hint, honored by backends that take
	// one (Ollama); others size the window by model.
	NumCtx int
	// MaxTokens caps the completion length.
	MaxTokens int
}

// Client is a generation backend. Generate performs exactly one call, bounded
// by ctx, and returns the raw completion text or an error wrapping one of the
// sentinel failures below.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Failure sentinels. Callers match with errors.Is; every Generate error wraps
// exactly one of these.
var (
	// ErrUnreachable covers connection failures and timeouts.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrBadStatus covers non-2xx HTTP responses.
	ErrBadStatus = errors.New("backend returned error status")
	// ErrEmptyBody covers 200/OK responses whose completion text is empty or
	// whitespace-only. An empty message is never a valid artifact.
	ErrEmptyBody = errors.New("backend returned empty completion")
	// ErrMalformedBody covers undecodable response payloads.
	ErrMalformedBody = errors.New("backend returned malformed response")
)

const _defaultTimeout = 60 * time.Second
