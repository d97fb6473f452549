package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected default redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("expected 30m cache TTL, got %s", cfg.CacheTTL)
	}
	if cfg.RateLimitBurst != 60 {
		t.Errorf("expected burst 60, got %d", cfg.RateLimitBurst)
	}
	if len(cfg.ProviderOrder) != 3 || cfg.ProviderOrder[0] != "openai" {
		t.Errorf("unexpected provider order %v", cfg.ProviderOrder)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config with a key should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("ANTHROPIC_MODEL", "claude-test")
	t.Setenv("SUMMARY_CACHE_TTL", "90s")
	t.Setenv("PROVIDER_ORDER", "anthropic,ollama")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !cfg.HasAnthropic() {
		t.Error("should have Anthropic configured")
	}
	if cfg.HasOllama() {
		t.Error("should not have Ollama configured without a model")
	}
	if cfg.Anthropic.Model != "claude-test" {
		t.Errorf("expected model claude-test, got %q", cfg.Anthropic.Model)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("expected 90s cache TTL, got %s", cfg.CacheTTL)
	}
	if len(cfg.ProviderOrder) != 2 || cfg.ProviderOrder[1] != "ollama" {
		t.Errorf("unexpected provider order %v", cfg.ProviderOrder)
	}
	if cfg.RateLimitBurst != 3 {
		t.Errorf("expected burst 3, got %d", cfg.RateLimitBurst)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		CacheTTL:         time.Minute,
		RateLimitWindow:  time.Hour,
		RateLimitBurst:   10,
		BreakerThreshold: 3,
		MaxAttempts:      3,
	}

	// No providers at all
	if err := base.Validate(); err == nil {
		t.Error("expected error when no providers configured")
	}

	cfg := base
	cfg.Ollama.Model = "llama3.2"
	if err := cfg.Validate(); err != nil {
		t.Errorf("ollama-only config should validate: %v", err)
	}

	cfg = base
	cfg.OpenAI.APIKey = "sk"
	cfg.CacheTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero cache TTL")
	}

	cfg = base
	cfg.OpenAI.APIKey = "sk"
	cfg.RateLimitBurst = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero burst")
	}

	cfg = base
	cfg.OpenAI.APIKey = "sk"
	cfg.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max attempts")
	}
}
