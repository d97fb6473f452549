// Package prompt handles summarization prompt generation and management
package prompt

import (
	"fmt"
	"os"
	"strings"
)

// System returns the system prompt to use: the custom prompt at path if set,
// otherwise the built-in default.
func System(path string) (string, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read custom prompt: %w", err)
	}
	custom := strings.TrimSpace(string(data))
	if custom == "" {
		return "", fmt.Errorf("custom prompt at %s is empty", path)
	}
	return custom, nil
}

// SystemWithFallback returns the system prompt, falling back to the default
// when the custom prompt cannot be loaded.
func SystemWithFallback(path string) string {
	p, err := System(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading summary prompt: %v\nUsing default prompt instead.\n", err)
		return Default()
	}
	return p
}

// User builds the user-turn prompt from the headline cluster text and its
// optional surrounding context.
func User(text, context string) string {
	var b strings.Builder
	b.WriteString("Summarize the following headline cluster:\n\n")
	b.WriteString(text)
	if context != "" {
		b.WriteString("\n\nAdditional context:\n")
		b.WriteString(context)
	}
	return b.String()
}
