package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const (
	defaultClaudeModel = "claude-sonnet-4-5-20250929"

	apiVersionHeader = "2023-06-01"
)

// ClaudeProvider performs single attempts against the Anthropic messages
// API. SDK-internal retries are disabled; the Client owns retry policy.
type ClaudeProvider struct {
	apiKey  string
	baseURL string
}

// NewClaudeProvider creates a provider with the given credential and
// optional base URL override.
func NewClaudeProvider(apiKey, baseURL string) *ClaudeProvider {
	return &ClaudeProvider{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Validate() error {
	if p == nil {
		return errors.New("llm: nil provider")
	}
	if p.apiKey == "" {
		return &ConfigError{Reason: "missing api key"}
	}
	return nil
}

func (p *ClaudeProvider) Generate(ctx context.Context, prompt string, params Params) (*GenerateResult, error) {
	if p == nil {
		return nil, errors.New("llm: claude: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}

	model := strings.TrimSpace(params.Model)
	if model == "" {
		model = defaultClaudeModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithMaxRetries(0),
		option.WithHeader("anthropic-version", apiVersionHeader),
	}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(sdkBaseURL(p.baseURL)))
	}
	sdk := anthropic.NewClient(opts...)

	msgParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(params.MaxTokens),
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
		}},
	}
	if params.Temperature != 0 {
		msgParams.Temperature = param.NewOpt(params.Temperature)
	}

	msg, err := sdk.Messages.New(ctx, msgParams)
	if err != nil {
		return nil, normalizeClaudeError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return &GenerateResult{
		Content: sb.String(),
		Raw:     json.RawMessage(msg.RawJSON()),
	}, nil
}

func sdkBaseURL(base string) string {
	base = strings.TrimSpace(strings.TrimRight(base, "/"))
	return strings.TrimSuffix(base, "/v1")
}

type claudeErrorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func normalizeClaudeError(err error) error {
	if err == nil {
		return nil
	}

	var sdkErr *anthropic.Error
	if !errors.As(err, &sdkErr) {
		return err
	}

	apiErr := &APIError{StatusCode: sdkErr.StatusCode}
	if sdkErr.Response != nil {
		apiErr.Status = sdkErr.Response.Status
	} else if sdkErr.StatusCode != 0 {
		apiErr.Status = fmt.Sprintf("%d %s", sdkErr.StatusCode, http.StatusText(sdkErr.StatusCode))
	}

	raw := strings.TrimSpace(sdkErr.RawJSON())
	if raw != "" {
		apiErr.Body = []byte(raw)
		var env claudeErrorEnvelope
		if json.Unmarshal([]byte(raw), &env) == nil {
			apiErr.Message = env.Error.Message
		}
	}

	return apiErr
}
