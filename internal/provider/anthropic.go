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

const anthropicDefaultBaseURL = "https://api.anthropic.com"

// Anthropic summarizes through the messages API
type Anthropic struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	system  string
	timeout time.Duration
}

// AnthropicOption configures an Anthropic client
type AnthropicOption func(*Anthropic)

// WithAnthropicHTTPClient overrides the HTTP client
func WithAnthropicHTTPClient(h *http.Client) AnthropicOption {
	return func(c *Anthropic) { c.http = h }
}

// WithAnthropicBaseURL overrides the API base URL (tests, proxies)
func WithAnthropicBaseURL(raw string) AnthropicOption {
	return func(c *Anthropic) {
		if raw != "" {
			c.baseURL = raw
		}
	}
}

// WithAnthropicTimeout bounds each summarize call
func WithAnthropicTimeout(d time.Duration) AnthropicOption {
	return func(c *Anthropic) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewAnthropic creates an Anthropic summarizer
func NewAnthropic(apiKey, model, system string, opts ...AnthropicOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, errors.New("apiKey required")
	}
	if model == "" {
		return nil, errors.New("model required")
	}
	c := &Anthropic{
		http:    http.DefaultClient,
		baseURL: anthropicDefaultBaseURL,
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
func (c *Anthropic) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Summarize implements Summarizer
func (c *Anthropic) Summarize(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: 200,
		System:    c.system,
		Messages:  []anthropicMessage{{Role: "user", Content: userPrompt(req)}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", transportError(c.Name(), err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", transportError(c.Name(), err)
	}
	hr.Header.Set("x-api-key", c.apiKey)
	hr.Header.Set("anthropic-version", "2023-06-01")
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

	var out anthropicResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", transportError(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	for _, block := range out.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &Error{Provider: c.Name(), Kind: KindUpstream, Message: "no text content in response"}
}
