package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/codepilot/internal/llm"
	"github.com/stellarlinkco/codepilot/internal/store"
	"github.com/stellarlinkco/codepilot/internal/testrun"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type runRequest struct {
	Command    string `json:"command,omitempty"`
	WorkingDir string `json:"working_dir,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	if s.generator == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("generation not configured"))
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing prompt"))
		return
	}

	res, err := s.generator.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, generateErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": res.Content,
		"raw":     res.Raw,
	})
}

func generateErrorStatus(err error) int {
	var cfgErr *llm.ConfigError
	if errors.As(err, &cfgErr) {
		return http.StatusServiceUnavailable
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, llm.ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) handleStartRun(c *gin.Context) {
	if s.runTests == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("test runs not configured"))
		return
	}

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	command := strings.TrimSpace(req.Command)
	dir := strings.TrimSpace(req.WorkingDir)
	if s.config != nil {
		if command == "" {
			command = strings.TrimSpace(s.config.Tests.Command)
		}
		if dir == "" {
			dir = strings.TrimSpace(s.config.Tests.WorkingDir)
		}
	}
	if command == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing command"))
		return
	}

	var output strings.Builder
	started := time.Now().UTC()
	res, err := s.runTests(c.Request.Context(), command, dir, &output)
	finished := time.Now().UTC()
	if err != nil {
		var launchErr *testrun.LaunchError
		if errors.As(err, &launchErr) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	rec := &store.RunRecord{
		ID:           newRunID(),
		Command:      command,
		WorkingDir:   dir,
		StartedAt:    started,
		FinishedAt:   finished,
		Success:      res.Success,
		Summary:      res.Summary,
		Failures:     res.Failures,
		ArtifactPath: res.ArtifactPath,
	}
	if s.store != nil {
		if err := s.store.SaveRun(c.Request.Context(), rec); err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     rec.ID,
		"result": res,
		"output": output.String(),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("store not configured"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*store.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("store not configured"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + hex.EncodeToString(b)
}
