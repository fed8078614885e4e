// Package llm wraps langchaingo behind a single text-completion interface.
//
// Callers send a prompt and get text back. When the text is expected to be
// JSON, they run it through ExtractJSON first and treat parse failures as
// soft failures; model output is never trusted to conform.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client is the single text-completion call the rest of the system depends on.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects the provider and model.
type Config struct {
	Provider  string `yaml:"provider"` // openai | anthropic | ollama | googleai
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the key
	OllamaURL string `yaml:"ollama_url"`
}

type client struct {
	model llms.Model
}

// New creates a Client for the configured provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)

	var model llms.Model
	var err error

	switch cfg.Provider {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("llm: OpenAI API key required (env %s)", cfg.APIKeyEnv)
		}
		model, err = openai.New(openai.WithToken(apiKey), openai.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("llm: create openai model: %w", err)
		}

	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("llm: Anthropic API key required (env %s)", cfg.APIKeyEnv)
		}
		model, err = anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("llm: create anthropic model: %w", err)
		}

	case "ollama":
		model, err = ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.OllamaURL))
		if err != nil {
			return nil, fmt.Errorf("llm: create ollama model: %w", err)
		}

	case "googleai":
		if apiKey == "" {
			return nil, fmt.Errorf("llm: Google AI API key required (env %s)", cfg.APIKeyEnv)
		}
		model, err = googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("llm: create googleai model: %w", err)
		}

	default:
		return nil, fmt.Errorf("llm: unsupported provider: %q", cfg.Provider)
	}

	return &client{model: model}, nil
}

// Generate sends a single prompt and returns the completion text.
func (c *client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	return resp, nil
}

// ExtractJSON strips markdown fences and surrounding prose from model output
// so the payload parses as JSON. Models routinely wrap JSON in ```json fences
// or preface it with a sentence despite instructions not to.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s)
	}

	// Fall back to the outermost bracket pair.
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndex(s, "]")
	} else {
		end = strings.LastIndex(s, "}")
	}
	if end <= start {
		return s
	}
	return strings.TrimSpace(s[start : end+1])
}
