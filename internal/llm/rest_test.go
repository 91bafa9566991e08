package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRESTProvider_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		apiKey   string
		wantErr  bool
	}{
		{"ok", "http://example.test", "key", false},
		{"missing endpoint", "", "key", true},
		{"missing key", "http://example.test", "", true},
		{"blank endpoint", "   ", "key", true},
	}
	for _, tc := range tests {
		err := NewRESTProvider(tc.endpoint, tc.apiKey).Validate()
		if tc.wantErr {
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("%s: got %v want *ConfigError", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: Validate: %v", tc.name, err)
		}
	}
}

func TestRESTProvider_RequestShape(t *testing.T) {
	t.Parallel()

	reqCh := make(chan map[string]any, 1)
	authCh := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		var got map[string]any
		if err := json.Unmarshal(b, &got); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		reqCh <- got
		authCh <- r.Header.Get("Authorization")

		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"generated"}}]}`))
	}))
	t.Cleanup(srv.Close)

	p := NewRESTProvider(srv.URL, "secret")
	res, err := p.Generate(context.Background(), "write a test", Params{
		Model:       "m1",
		MaxTokens:   256,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Content != "generated" {
		t.Fatalf("Content: got %q want %q", res.Content, "generated")
	}
	if len(res.Raw) == 0 {
		t.Fatalf("Raw: empty")
	}

	got := <-reqCh
	if got["model"] != "m1" {
		t.Fatalf("model: got %v want %q", got["model"], "m1")
	}
	if got["prompt"] != "write a test" {
		t.Fatalf("prompt: got %v", got["prompt"])
	}
	if got["max_tokens"] != float64(256) {
		t.Fatalf("max_tokens: got %v want %d", got["max_tokens"], 256)
	}
	if got["temperature"] != 0.2 {
		t.Fatalf("temperature: got %v want %v", got["temperature"], 0.2)
	}
	if auth := <-authCh; auth != "Bearer secret" {
		t.Fatalf("Authorization: got %q want %q", auth, "Bearer secret")
	}
}

func TestRESTProvider_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewRESTProvider(srv.URL, "k").Generate(context.Background(), "p", Params{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Generate: got %v want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode: got %d want %d", apiErr.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestExtractContent_FallbackOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"choice message", `{"choices":[{"message":{"content":"a"},"text":"b"}],"content":"c","result":"d"}`, "a"},
		{"choice text", `{"choices":[{"text":"b"}],"content":"c","result":"d"}`, "b"},
		{"flat content", `{"content":"c","result":"d"}`, "c"},
		{"flat result", `{"result":"d"}`, "d"},
		{"empty choice falls through", `{"choices":[{"message":{"content":""}}],"content":"c"}`, "c"},
		{"no recognizable shape", `{"usage":{"total_tokens":5}}`, ""},
		{"empty object", `{}`, ""},
		{"not json", `<html>oops</html>`, ""},
	}
	for _, tc := range tests {
		if got := extractContent([]byte(tc.body)); got != tc.want {
			t.Fatalf("%s: extractContent: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestRESTProvider_UnrecognizedShapeIsEmptyNotError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"something":"else"}`))
	}))
	t.Cleanup(srv.Close)

	res, err := NewRESTProvider(srv.URL, "k").Generate(context.Background(), "p", Params{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Content != "" {
		t.Fatalf("Content: got %q want empty", res.Content)
	}
	if string(res.Raw) != `{"something":"else"}` {
		t.Fatalf("Raw: got %q", res.Raw)
	}
}
