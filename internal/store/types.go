// Package store persists test-run history.
package store

import (
	"context"
	"time"

	"github.com/stellarlinkco/codepilot/internal/trx"
)

// RunWriter defines persistence for completed test runs.
type RunWriter interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
}

// RunReader defines read access to stored runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
}

// Store defines persistence for test-run history.
type Store interface {
	RunWriter
	RunReader
	Close() error
}

// RunRecord stores one test run outcome.
type RunRecord struct {
	ID           string
	Command      string
	WorkingDir   string
	StartedAt    time.Time
	FinishedAt   time.Time
	Success      bool
	Summary      trx.Summary
	Failures     []trx.Failure // JSON serialized
	ArtifactPath string
}
