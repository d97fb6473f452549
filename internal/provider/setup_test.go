package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower/internal/config"
)

func TestFromConfigOrderAndSkipping(t *testing.T) {
	cfg := config.Config{
		ProviderOrder: []string{"openai", "anthropic", "ollama"},
	}
	cfg.Anthropic.APIKey = "ak"
	cfg.Anthropic.Model = "claude-test"
	cfg.Ollama.Model = "llama-test"

	// openai has no key and must be skipped without error
	ps, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, "anthropic", ps[0].Name())
	require.Equal(t, "ollama", ps[1].Name())
}

func TestFromConfigUnknownProvider(t *testing.T) {
	cfg := config.Config{ProviderOrder: []string{"skynet"}}
	_, err := FromConfig(cfg, nil)
	require.Error(t, err)
}

func TestFromConfigNoneConfigured(t *testing.T) {
	cfg := config.Config{ProviderOrder: []string{"openai"}}
	_, err := FromConfig(cfg, nil)
	require.Error(t, err)
}
