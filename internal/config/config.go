// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// Cross-client summary cache
	CacheTTL         time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"30m"`
	CacheStaleGrace  time.Duration `env:"SUMMARY_CACHE_STALE_GRACE" envDefault:"6h"`
	RefreshThreshold time.Duration `env:"SUMMARY_REFRESH_THRESHOLD" envDefault:"5m"`

	// Per-client quota on the summarize endpoint
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"60"`

	// Outer per-IP throttle applied to the whole HTTP surface
	HTTPRatePerMinute int `env:"HTTP_RATE_PER_MINUTE" envDefault:"120"`

	// Provider resilience
	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"20s"`
	BreakerThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"3"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"2m"`
	QuotaCooldown    time.Duration `env:"PROVIDER_QUOTA_COOLDOWN" envDefault:"24h"`
	MaxAttempts      int           `env:"PROVIDER_MAX_ATTEMPTS" envDefault:"3"`

	// Traversal order for the fallback chain; unconfigured providers are skipped
	ProviderOrder []string `env:"PROVIDER_ORDER" envSeparator:"," envDefault:"openai,anthropic,ollama"`

	// Optional path to a custom summarization prompt
	PromptPath string `env:"SUMMARY_PROMPT_PATH"`

	OpenAI    OpenAIConfig    `envPrefix:"OPENAI_"`
	Anthropic AnthropicConfig `envPrefix:"ANTHROPIC_"`
	Ollama    OllamaConfig    `envPrefix:"OLLAMA_"`
}

// OpenAIConfig holds OpenAI-specific configuration. BaseURL makes the adapter
// usable against any OpenAI-compatible server.
type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.openai.com/v1"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"claude-3-5-haiku-latest"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.anthropic.com"`
}

// OllamaConfig holds configuration for a local Ollama instance, the lowest
// tier of the fallback chain.
type OllamaConfig struct {
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:11434"`
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// HasOpenAI returns true if OpenAI configuration is complete
func (c Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasAnthropic returns true if Anthropic configuration is complete
func (c Config) HasAnthropic() bool {
	return c.Anthropic.APIKey != ""
}

// HasOllama returns true if a local Ollama model is configured
func (c Config) HasOllama() bool {
	return c.Ollama.Model != ""
}

// Validate ensures the configuration can drive at least one provider and that
// the resilience knobs are sane.
func (c Config) Validate() error {
	if !c.HasOpenAI() && !c.HasAnthropic() && !c.HasOllama() {
		return fmt.Errorf("no providers configured - set OPENAI_API_KEY, ANTHROPIC_API_KEY or OLLAMA_MODEL")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("SUMMARY_CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.CacheStaleGrace < 0 {
		return fmt.Errorf("SUMMARY_CACHE_STALE_GRACE must not be negative, got %s", c.CacheStaleGrace)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst)
	}
	if c.BreakerThreshold == 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("PROVIDER_MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	return nil
}
