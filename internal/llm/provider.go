// Package llm sends code-generation prompts to a remote language model,
// bounding concurrency and retrying transient failures.
package llm

import (
	"context"
	"encoding/json"
)

// Params carries the per-request generation settings a provider applies to
// one attempt.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// GenerateResult is the normalized output of one remote call. Content may be
// empty when the response carried no recognizable payload; Raw keeps the
// decoded response body for caller-side diagnostics. The client does not
// retain it.
type GenerateResult struct {
	Content string          `json:"content"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Provider performs a single generation attempt against one remote API.
// Retry, timeout, and admission control live in Client, not in providers.
type Provider interface {
	Name() string

	// Validate reports a *ConfigError when the provider is missing the
	// endpoint or credential it needs. It runs before any network
	// activity and before the admission gate is touched.
	Validate() error

	Generate(ctx context.Context, prompt string, params Params) (*GenerateResult, error)
}
