package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openaiServer(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI("test-key", srv.URL, "openai")
}

func TestOpenAIGenerate_success(t *testing.T) {
	t.Parallel()
	client := openaiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "fix: correct parser"}},
			},
		})
	})
	got, err := client.Generate(context.Background(), Request{Model: "gpt-4o-mini", Prompt: "p", MaxTokens: 128})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "fix: correct parser" {
		t.Errorf("got %q", got)
	}
}

func TestOpenAIGenerate_noChoicesIsEmptyBody(t *testing.T) {
	t.Parallel()
	client := openaiServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	_, err := client.Generate(context.Background(), Request{Model: "m", Prompt: "p"})
	if !errors.Is(err, ErrEmptyBody) {
		t.Errorf("err = %v, want ErrEmptyBody", err)
	}
}

func TestOpenAIGenerate_apiErrorIsBadStatus(t *testing.T) {
	t.Parallel()
	client := openaiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})
	_, err := client.Generate(context.Background(), Request{Model: "m", Prompt: "p"})
	if !errors.Is(err, ErrBadStatus) {
		t.Errorf("err = %v, want ErrBadStatus", err)
	}
}

func TestOpenAIGenerate_serverDownIsUnreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	client := NewOpenAI("k", url, "openai")
	_, err := client.Generate(context.Background(), Request{Model: "m", Prompt: "p"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}
