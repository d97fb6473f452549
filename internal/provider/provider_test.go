package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenAISummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		require.Contains(t, req.Messages[1].Content, "protest convoy")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "A convoy formed."}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAI("sk-test", "gpt-test", "system prompt", WithOpenAIBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Summarize(context.Background(), Request{Text: "protest convoy heading north"})
	require.NoError(t, err)
	require.Equal(t, "A convoy formed.", out)
}

func TestOpenAIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"quota", http.StatusTooManyRequests, KindQuotaExceeded},
		{"bad input", http.StatusBadRequest, KindInvalidInput},
		{"server error", http.StatusInternalServerError, KindUpstream},
		{"auth misconfig is not caller input", http.StatusUnauthorized, KindUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c, err := NewOpenAI("sk-test", "gpt-test", "", WithOpenAIBaseURL(srv.URL))
			require.NoError(t, err)

			_, err = c.Summarize(context.Background(), Request{Text: "x"})
			require.Error(t, err)
			require.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestOpenAITimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewOpenAI("sk-test", "gpt-test", "",
		WithOpenAIBaseURL(srv.URL), WithOpenAITimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), Request{Text: "x"})
	require.Error(t, err)
	require.Equal(t, KindTimeout, KindOf(err))
}

func TestAnthropicSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		require.NotEmpty(t, r.Header.Get("anthropic-version"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "Two vessels converged."},
			},
		})
	}))
	defer srv.Close()

	c, err := NewAnthropic("ak-test", "claude-test", "system", WithAnthropicBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Summarize(context.Background(), Request{Text: "AIS cluster off the strait"})
	require.NoError(t, err)
	require.Equal(t, "Two vessels converged.", out)
}

func TestOllamaSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(map[string]any{"response": "Quake near the coast."})
	}))
	defer srv.Close()

	c, err := NewOllama("llama-test", "system", WithOllamaBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Summarize(context.Background(), Request{Text: "M6.1 quake reported"})
	require.NoError(t, err)
	require.Equal(t, "Quake near the coast.", out)
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := NewOpenAI("", "model", ""); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := NewAnthropic("key", "", ""); err == nil {
		t.Error("expected error for missing model")
	}
	if _, err := NewOllama("", ""); err == nil {
		t.Error("expected error for missing model")
	}
}
