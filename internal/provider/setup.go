package provider

import (
	"fmt"
	"net/http"

	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/prompt"
)

// FromConfig builds the configured summarizers in chain order. Names in
// cfg.ProviderOrder whose provider is not configured are skipped; an unknown
// name is an error so a typo in PROVIDER_ORDER fails loudly at boot.
func FromConfig(cfg config.Config, httpClient *http.Client) ([]Summarizer, error) {
	system := prompt.SystemWithFallback(cfg.PromptPath)
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var out []Summarizer
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "openai":
			if !cfg.HasOpenAI() {
				continue
			}
			p, err := NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, system,
				WithOpenAIHTTPClient(httpClient),
				WithOpenAIBaseURL(cfg.OpenAI.BaseURL),
				WithOpenAITimeout(cfg.ProviderTimeout),
			)
			if err != nil {
				return nil, fmt.Errorf("openai: %w", err)
			}
			out = append(out, p)
		case "anthropic":
			if !cfg.HasAnthropic() {
				continue
			}
			p, err := NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, system,
				WithAnthropicHTTPClient(httpClient),
				WithAnthropicBaseURL(cfg.Anthropic.BaseURL),
				WithAnthropicTimeout(cfg.ProviderTimeout),
			)
			if err != nil {
				return nil, fmt.Errorf("anthropic: %w", err)
			}
			out = append(out, p)
		case "ollama":
			if !cfg.HasOllama() {
				continue
			}
			p, err := NewOllama(cfg.Ollama.Model, system,
				WithOllamaHTTPClient(httpClient),
				WithOllamaBaseURL(cfg.Ollama.BaseURL),
				WithOllamaTimeout(cfg.ProviderTimeout),
			)
			if err != nil {
				return nil, fmt.Errorf("ollama: %w", err)
			}
			out = append(out, p)
		default:
			return nil, fmt.Errorf("unknown provider %q in PROVIDER_ORDER", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no providers configured for order %v", cfg.ProviderOrder)
	}
	return out, nil
}
