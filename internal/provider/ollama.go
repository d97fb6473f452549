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

const ollamaDefaultBaseURL = "http://localhost:11434"

// Ollama summarizes through a local Ollama instance. It has no quota and no
// network dependency, which makes it the natural last entry of the fallback
// chain: a degraded but always-reachable tier.
type Ollama struct {
	http    *http.Client
	baseURL string
	model   string
	system  string
	timeout time.Duration
}

// OllamaOption configures an Ollama client
type OllamaOption func(*Ollama)

// WithOllamaHTTPClient overrides the HTTP client
func WithOllamaHTTPClient(h *http.Client) OllamaOption {
	return func(c *Ollama) { c.http = h }
}

// WithOllamaBaseURL points the adapter at a non-default Ollama address
func WithOllamaBaseURL(raw string) OllamaOption {
	return func(c *Ollama) {
		if raw != "" {
			c.baseURL = raw
		}
	}
}

// WithOllamaTimeout bounds each summarize call. Local models are slow; give
// them a longer default than the hosted tiers if needed.
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(c *Ollama) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewOllama creates an Ollama summarizer
func NewOllama(model, system string, opts ...OllamaOption) (*Ollama, error) {
	if model == "" {
		return nil, errors.New("model required")
	}
	c := &Ollama{
		http:    http.DefaultClient,
		baseURL: ollamaDefaultBaseURL,
		model:   model,
		system:  system,
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Name implements Summarizer
func (c *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Summarize implements Summarizer
func (c *Ollama) Summarize(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := ollamaRequest{
		Model:  c.model,
		System: c.system,
		Prompt: userPrompt(req),
		Stream: false,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", transportError(c.Name(), err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", transportError(c.Name(), err)
	}
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

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", transportError(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	if out.Response == "" {
		return "", &Error{Provider: c.Name(), Kind: KindUpstream, Message: "empty response"}
	}
	return out.Response, nil
}
