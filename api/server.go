// Package api exposes the generation and test-run entry points over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/codepilot/internal/config"
	"github.com/stellarlinkco/codepilot/internal/llm"
	"github.com/stellarlinkco/codepilot/internal/store"
	"github.com/stellarlinkco/codepilot/internal/trx"
)

// Generator produces code for a prompt; *llm.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*llm.GenerateResult, error)
}

// TestRunner executes a test command and aggregates its result artifact;
// testrun.Run satisfies it.
type TestRunner func(ctx context.Context, command, dir string, sink io.Writer) (*trx.RunResult, error)

type Server struct {
	router    *gin.Engine
	store     store.Store
	generator Generator
	runTests  TestRunner
	config    *config.Config
}

func NewServer(cfg *config.Config, st store.Store, gen Generator, runTests TestRunner) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:    r,
		store:     st,
		generator: gen,
		runTests:  runTests,
		config:    cfg,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
