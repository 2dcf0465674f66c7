package llm

import (
	"net/http"

	"gitai/cli/internal/erruser"
)

// Options selects and configures a backend. Provider names are normalized by
// config; unknown names are a configuration error, not a generation failure.
type Options struct {
	Provider string // ollama | openai | lmstudio | anthropic
	BaseURL  string // backend API root; empty uses the provider default
	APIKey   string // credential for hosted providers
	// HTTPClient overrides the default client (tests use httptest clients).
	HTTPClient *http.Client
}

const (
	defaultOllamaBaseURL   = "http://localhost:11434"
	defaultLMStudioBaseURL = "http://localhost:1234/v1"
	// lmstudioDummyKey satisfies the OpenAI-compatible auth header; LM Studio
	// ignores the value.
	lmstudioDummyKey = "lm-studio"
)

// New builds the Client for the configured provider.
func New(opts Options) (Client, error) {
	switch opts.Provider {
	case "", "ollama":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		return NewOllama(baseURL, opts.HTTPClient), nil
	case "openai":
		if opts.APIKey == "" {
			return nil, erruser.New("OpenAI API key is required. Set OPENAI_API_KEY.", nil)
		}
		return NewOpenAI(opts.APIKey, opts.BaseURL, "openai"), nil
	case "lmstudio":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = defaultLMStudioBaseURL
		}
		key := opts.APIKey
		if key == "" {
			key = lmstudioDummyKey
		}
		return NewOpenAI(key, baseURL, "lmstudio"), nil
	case "anthropic":
		if opts.APIKey == "" {
			return nil, erruser.New("Anthropic API key is required. Set ANTHROPIC_API_KEY.", nil)
		}
		return NewAnthropic(opts.APIKey, opts.BaseURL, opts.HTTPClient), nil
	default:
		return nil, erruser.New("Unknown provider '"+opts.Provider+"'. Valid providers: anthropic, lmstudio, ollama, openai.", nil)
	}
}
