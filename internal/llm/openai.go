package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider performs single attempts against an OpenAI-compatible chat
// completions API.
type OpenAIProvider struct {
	client *openai.Client
	apiKey string
}

// NewOpenAIProvider creates a provider with the given credential and
// optional base URL override.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	key := strings.TrimSpace(apiKey)
	cfg := openai.DefaultConfig(key)
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		apiKey: key,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Validate() error {
	if p == nil || p.client == nil {
		return errors.New("llm: nil provider")
	}
	if p.apiKey == "" {
		return &ConfigError{Reason: "missing api key"}
	}
	return nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, params Params) (*GenerateResult, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}

	model := strings.TrimSpace(params.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   params.MaxTokens,
		Temperature: float32(params.Temperature),
	})
	if err != nil {
		return nil, normalizeOpenAIError(err)
	}

	// An empty choices list is an empty result, not an error.
	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	raw, _ := json.Marshal(resp)
	return &GenerateResult{
		Content: content,
		Raw:     raw,
	}, nil
}

func normalizeOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return &APIError{
		StatusCode: apiErr.HTTPStatusCode,
		Message:    apiErr.Message,
	}
}
