package llm

import (
	"fmt"
	"io"
	"strings"

	"github.com/stellarlinkco/codepilot/internal/config"
)

// NewClientFromConfig builds a Client whose provider is chosen by the
// configured provider name. The empty name selects the generic REST
// provider.
func NewClientFromConfig(cfg *config.Config, logw io.Writer) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil config")
	}

	g := cfg.Generation
	var provider Provider
	switch name := strings.ToLower(strings.TrimSpace(g.Provider)); name {
	case "", "rest", "custom":
		provider = NewRESTProvider(g.Endpoint, g.APIKey)
	case "claude", "anthropic":
		provider = NewClaudeProvider(g.APIKey, g.Endpoint)
	case "openai":
		provider = NewOpenAIProvider(g.APIKey, g.Endpoint)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", g.Provider)
	}

	opts := Options{
		Endpoint:    g.Endpoint,
		APIKey:      g.APIKey,
		Model:       g.Model,
		Timeout:     g.Timeout.Std(),
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		Concurrency: g.Concurrency,
	}

	var clientOpts []Option
	if logw != nil {
		clientOpts = append(clientOpts, WithLogWriter(logw))
	}
	return NewClient(provider, opts, clientOpts...), nil
}
