// Package trx locates and parses TRX test-result artifacts.
package trx

import "fmt"

// Outcome classifies one test record. Unrecognized outcome strings map to
// OutcomeFailed so that an ambiguous record can never pass silently.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomePassed
	OutcomeSkipped
)

// String returns the lowercase outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Failure is one failing or erroring test. Message and StackTrace stay nil
// when the artifact carried no error info block; callers distinguish nil
// from an empty string.
type Failure struct {
	TestName   string  `json:"test_name"`
	Message    *string `json:"message,omitempty"`
	StackTrace *string `json:"stack_trace,omitempty"`
}

// Summary aggregates per-record counts and total duration.
type Summary struct {
	Passed     int   `json:"passed"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	Total      int   `json:"total"`
	DurationMs int64 `json:"duration_ms"`
}

// RunResult is the top-level outcome of one test run. When a run is
// reconciled against a nonzero exit code, Success may be false while the
// summary still shows zero failed records; the counts reflect the artifact
// as written.
type RunResult struct {
	Success      bool      `json:"success"`
	Failures     []Failure `json:"failures"`
	Summary      Summary   `json:"summary"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
}

// ParseError reports an artifact that could not be decoded as XML at all.
// Field-level problems inside a well-formed document never produce one.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e == nil || e.Err == nil {
		return "trx: parse error"
	}
	return fmt.Sprintf("trx: parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
