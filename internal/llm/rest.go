package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RESTProvider posts prompts to a generic JSON completion endpoint. The
// response may be shaped like a chat-completions payload or carry a flat
// content/result field; anything else normalizes to an empty string.
type RESTProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRESTProvider creates a provider for the given endpoint and credential.
func NewRESTProvider(endpoint, apiKey string) *RESTProvider {
	return &RESTProvider{
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{},
	}
}

func (p *RESTProvider) Name() string {
	return "rest"
}

func (p *RESTProvider) Validate() error {
	if p == nil {
		return errors.New("llm: nil provider")
	}
	if p.endpoint == "" {
		return &ConfigError{Reason: "missing endpoint"}
	}
	if p.apiKey == "" {
		return &ConfigError{Reason: "missing api key"}
	}
	return nil
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func (p *RESTProvider) Generate(ctx context.Context, prompt string, params Params) (*GenerateResult, error) {
	if p == nil || p.httpClient == nil {
		return nil, errors.New("llm: rest: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: rest: nil context")
	}

	body, err := json.Marshal(generateRequest{
		Model:       strings.TrimSpace(params.Model),
		Prompt:      prompt,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: rest: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: rest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: rest: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       raw,
		}
	}

	return &GenerateResult{
		Content: extractContent(raw),
		Raw:     json.RawMessage(raw),
	}, nil
}

type responseChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Text string `json:"text"`
}

type responseEnvelope struct {
	Choices []responseChoice `json:"choices"`
	Content string           `json:"content"`
	Result  string           `json:"result"`
}

// contentExtractors is the fallback search order over a decoded response:
// first choice's message content, first choice's plain text, a top-level
// content field, then a top-level result field.
var contentExtractors = []func(*responseEnvelope) string{
	func(e *responseEnvelope) string {
		if len(e.Choices) > 0 {
			return e.Choices[0].Message.Content
		}
		return ""
	},
	func(e *responseEnvelope) string {
		if len(e.Choices) > 0 {
			return e.Choices[0].Text
		}
		return ""
	},
	func(e *responseEnvelope) string { return e.Content },
	func(e *responseEnvelope) string { return e.Result },
}

// extractContent returns the first non-empty match of the fallback order.
// A body that matches no shape, including one that is not JSON, yields an
// empty string; an empty result is not an error.
func extractContent(raw []byte) string {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	for _, extract := range contentExtractors {
		if s := extract(&env); s != "" {
			return s
		}
	}
	return ""
}
