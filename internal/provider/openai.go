package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAI summarizes through the chat-completions API. With a custom base URL
// it also covers any OpenAI-compatible server.
type OpenAI struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	system  string
	timeout time.Duration
}

// OpenAIOption configures an OpenAI client
type OpenAIOption func(*OpenAI)

// WithOpenAIHTTPClient overrides the HTTP client
func WithOpenAIHTTPClient(h *http.Client) OpenAIOption {
	return func(c *OpenAI) { c.http = h }
}

// WithOpenAIBaseURL points the adapter at an OpenAI-compatible server
func WithOpenAIBaseURL(raw string) OpenAIOption {
	return func(c *OpenAI) {
		if raw != "" {
			c.baseURL = raw
		}
	}
}

// WithOpenAITimeout bounds each summarize call
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(c *OpenAI) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewOpenAI creates an OpenAI summarizer
func NewOpenAI(apiKey, model, system string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("apiKey required")
	}
	if model == "" {
		return nil, errors.New("model required")
	}
	c := &OpenAI{
		http:    http.DefaultClient,
		baseURL: openAIDefaultBaseURL,
		apiKey:  apiKey,
		model:   model,
		system:  system,
		timeout: 20 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Name implements Summarizer
func (c *OpenAI) Name() string { return "openai" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Summarize implements Summarizer
func (c *OpenAI) Summarize(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: c.system},
			{Role: "user", Content: userPrompt(req)},
		},
		MaxTokens:   200,
		Temperature: 0.2,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", transportError(c.Name(), err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", transportError(c.Name(), err)
	}
	hr.Header.Set("Authorization", "Bearer "+c.apiKey)
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(hr)
	if err != nil {
		return "", transportError(c.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(c.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(c.Name(), resp.StatusCode, raw)
	}

	var out openAIResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", transportError(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", &Error{Provider: c.Name(), Kind: KindUpstream, Message: "empty completion"}
	}
	return out.Choices[0].Message.Content, nil
}
