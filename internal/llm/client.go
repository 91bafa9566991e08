package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/stellarlinkco/codepilot/internal/gate"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 1024
	maxAttempts      = 3
	retryBaseDelay   = 500 * time.Millisecond
)

// Options is the immutable per-client configuration.
type Options struct {
	Endpoint    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	Concurrency int
}

func (o Options) normalized() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return o
}

// Option configures a Client.
type Option func(*Client)

// WithLogWriter sets the sink for attempt-failure diagnostics.
func WithLogWriter(w io.Writer) Option {
	return func(c *Client) {
		if c == nil || w == nil {
			return
		}
		c.logw = w
	}
}

// Client wraps a Provider with an admission gate, a per-attempt timeout, and
// bounded retry with exponential backoff.
type Client struct {
	provider Provider
	opts     Options
	gate     *gate.Gate
	logw     io.Writer

	retryBase time.Duration
}

// NewClient constructs a Client around the given provider.
func NewClient(provider Provider, opts Options, clientOpts ...Option) *Client {
	c := &Client{
		provider:  provider,
		opts:      opts.normalized(),
		logw:      io.Discard,
		retryBase: retryBaseDelay,
	}
	c.gate = gate.New(c.opts.Concurrency)
	for _, opt := range clientOpts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Generate sends the prompt to the remote model and returns the normalized
// result. Configuration is checked before the gate is touched. Up to 3
// sequential attempts are made, each bounded by the configured timeout and
// separated by 500ms, 1000ms backoff; the last error is returned when all
// attempts fail. The gate slot is released on every exit path.
func (c *Client) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	if c == nil {
		return nil, errors.New("llm: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: nil context")
	}
	if c.provider == nil {
		return nil, errors.New("llm: nil provider")
	}

	if err := c.provider.Validate(); err != nil {
		return nil, err
	}

	if err := c.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.gate.Release()

	params := Params{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := c.attempt(ctx, prompt, params)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		fmt.Fprintf(c.logw, "llm: %s attempt %d/%d failed: %v\n", c.provider.Name(), attempt, maxAttempts, err)
		if err := sleepWithContext(ctx, retryBackoff(c.retryBase, attempt-1)); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, prompt string, params Params) (*GenerateResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	res, err := c.provider.Generate(attemptCtx, prompt, params)
	if err != nil {
		// Distinguish the attempt's own deadline from cancellation of the
		// whole call.
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return res, nil
}

func retryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt < 0 {
		return 0
	}
	return base * time.Duration(1<<attempt)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
