package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout reports an attempt that exceeded the configured timeout. The
// attempt is cancelled; the next one, if any, starts fresh.
var ErrTimeout = errors.New("request timed out")

// ConfigError reports a missing endpoint or credential. It is surfaced
// before any network activity and is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil || strings.TrimSpace(e.Reason) == "" {
		return "llm: configuration error"
	}
	return fmt.Sprintf("llm: %s", e.Reason)
}

// APIError represents a non-success response from the remote API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return "llm: api error <nil>"
	}

	msg := strings.TrimSpace(e.Message)
	if msg == "" && len(e.Body) > 0 {
		msg = strings.TrimSpace(string(e.Body))
	}

	status := strings.TrimSpace(e.Status)
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}

	if msg != "" {
		return fmt.Sprintf("llm: api error (%s): %s", status, msg)
	}
	return fmt.Sprintf("llm: api error (%s)", status)
}
