package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bugrelay/bugrelay/model"
	"github.com/bugrelay/bugrelay/ratelimit"
	"github.com/bugrelay/bugrelay/service"
)

// Server holds the ingestion pipeline and the two limiters gating it.
type Server struct {
	svc           *service.Service
	clientLimiter *ratelimit.Limiter
	repoLimiter   *ratelimit.Limiter
	installURL    string
	environment   string
	logger        *slog.Logger
}

func New(svc *service.Service, clientLimiter, repoLimiter *ratelimit.Limiter, installURL, environment string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:           svc,
		clientLimiter: clientLimiter,
		repoLimiter:   repoLimiter,
		installURL:    installURL,
		environment:   environment,
		logger:        logger,
	}
}

type feedbackResponse struct {
	Success     bool   `json:"success"`
	IssueNumber int    `json:"issueNumber"`
	IssueURL    string `json:"issueUrl"`
	IsPublic    bool   `json:"isPublic"`
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": s.environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) Check(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	installed, err := s.svc.CheckInstallation(r.Context(), owner, repo)
	if err != nil {
		s.logger.Error("installation check failed", "repo", owner+"/"+repo, "error", err)
		writeError(w, http.StatusInternalServerError, "Installation check failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"installed": installed,
		"repo":      owner + "/" + repo,
	})
}

// Feedback is the ingestion entry point. The body is parsed exactly
// once; the parsed submission feeds both the per-repository limiter
// and the pipeline.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := time.Now()
	byClient := s.clientLimiter.Check(r.Context(), ratelimit.ClientID(r), now)
	if !byClient.Allowed {
		writeRateLimited(w, byClient)
		return
	}
	byRepo := s.repoLimiter.Check(r.Context(), sub.Repo, now)
	if !byRepo.Allowed {
		writeRateLimited(w, byRepo)
		return
	}
	if remaining, ok := remainingQuota(byClient, byRepo); ok {
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	}

	result, err := s.svc.Submit(r.Context(), &sub)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{
		Success:     true,
		IssueNumber: result.Issue.Number,
		IssueURL:    result.Issue.HTMLURL,
		IsPublic:    result.IsPublic,
	})
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, service.ErrNotInstalled):
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":      "App not installed on this repository",
			"installUrl": s.installURL,
		})
	default:
		s.logger.Error("submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create issue")
	}
}

func writeRateLimited(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":      "Too many requests, slow down",
		"retryAfter": result.RetryAfter,
	})
}

// remainingQuota is the tighter of the two limiter quotas, ignoring
// skipped checks.
func remainingQuota(results ...ratelimit.Result) (int64, bool) {
	remaining, found := int64(0), false
	for _, r := range results {
		if r.Skipped {
			continue
		}
		if !found || r.Remaining < remaining {
			remaining, found = r.Remaining, true
		}
	}
	return remaining, found
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
