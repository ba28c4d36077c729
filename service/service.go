// Package service implements the feedback ingestion pipeline: a
// single-pass sequence of validate → authorize → upload → create with
// no state carried across submissions. The screenshot upload is the
// only best-effort stage; every other failure aborts the pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bugrelay/bugrelay/github"
	"github.com/bugrelay/bugrelay/model"
)

// ErrNotInstalled is the authorization failure surfaced to callers.
// "No installation" and "token exchange failed" both map here for API
// stability; the log line records which one actually happened.
var ErrNotInstalled = errors.New("app not installed on repository")

// ValidationError is a submission defect reportable to the widget.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// Broker is the slice of the access broker the pipeline needs.
type Broker interface {
	ExchangeForAccessToken(ctx context.Context, owner, repo string) (string, error)
	InstallationExists(ctx context.Context, owner, repo string) (bool, error)
	UploadScreenshot(ctx context.Context, token, owner, repo, dataURI string) (string, error)
	IsRepoPublic(ctx context.Context, token, owner, repo string) bool
	CreateIssue(ctx context.Context, token, owner, repo string, request github.CreateIssueRequest) (*github.Issue, error)
}

// Result is the successful outcome of one submission.
type Result struct {
	Issue    model.IssueRecord
	IsPublic bool
}

type Service struct {
	broker        Broker
	maxScreenshot int64 // decoded bytes
	logger        *slog.Logger
}

func New(broker Broker, maxScreenshotBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{broker: broker, maxScreenshot: maxScreenshotBytes, logger: logger}
}

// Submit runs the full pipeline for one submission.
func (s *Service) Submit(ctx context.Context, sub *model.Submission) (*Result, error) {
	owner, repo, err := s.Validate(sub)
	if err != nil {
		return nil, err
	}

	token, err := s.broker.ExchangeForAccessToken(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, github.ErrNoInstallation) {
			s.logger.Info("submission rejected, app not installed", "repo", sub.Repo)
		} else {
			s.logger.Error("token exchange failed", "repo", sub.Repo, "error", err)
		}
		return nil, ErrNotInstalled
	}

	// Best-effort: a lost screenshot is not worth losing the report.
	screenshotURL := ""
	if sub.Screenshot != "" {
		screenshotURL, err = s.broker.UploadScreenshot(ctx, token, owner, repo, sub.Screenshot)
		if err != nil {
			s.logger.Warn("screenshot upload failed, continuing without it",
				"repo", sub.Repo, "error", err)
			screenshotURL = ""
		}
	}

	issue, err := s.broker.CreateIssue(ctx, token, owner, repo, github.CreateIssueRequest{
		Title:  sub.Title,
		Body:   buildIssueBody(sub, screenshotURL),
		Labels: []string{sub.Category.Label()},
	})
	if err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	isPublic := s.broker.IsRepoPublic(ctx, token, owner, repo)

	s.logger.Info("issue created", "repo", sub.Repo, "number", issue.Number)
	return &Result{
		Issue:    model.IssueRecord{Number: issue.Number, HTMLURL: issue.HTMLURL},
		IsPublic: isPublic,
	}, nil
}

// CheckInstallation backs the widget's install pre-check endpoint.
func (s *Service) CheckInstallation(ctx context.Context, owner, repo string) (bool, error) {
	return s.broker.InstallationExists(ctx, owner, repo)
}

// Validate checks a submission in a fixed short-circuit order:
// required fields, screenshot size, repo format. On success it returns
// the split owner and repo segments.
func (s *Service) Validate(sub *model.Submission) (owner, repo string, err error) {
	var missing []string
	if sub.Repo == "" {
		missing = append(missing, "repo")
	}
	if sub.Title == "" {
		missing = append(missing, "title")
	}
	if sub.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return "", "", &ValidationError{
			Message: "Missing required fields: " + strings.Join(missing, ", "),
		}
	}

	if sub.Screenshot != "" {
		size := screenshotBytes(sub.Screenshot)
		if size > s.maxScreenshot {
			return "", "", &ValidationError{
				Message: fmt.Sprintf("Screenshot too large: %d bytes exceeds the %d byte limit", size, s.maxScreenshot),
			}
		}
	}

	owner, repo, ok := strings.Cut(sub.Repo, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", &ValidationError{
			Message: fmt.Sprintf("Invalid repo format: %q, expected \"owner/repo\"", sub.Repo),
		}
	}
	return owner, repo, nil
}

// screenshotBytes computes the decoded size of a data-URI screenshot
// from its base64 length, adjusted for padding so the configured limit
// is exact to the byte.
func screenshotBytes(dataURI string) int64 {
	_, payload, ok := strings.Cut(dataURI, ",")
	if !ok {
		payload = dataURI
	}
	padding := int64(0)
	for i := len(payload) - 1; i >= 0 && payload[i] == '='; i-- {
		padding++
	}
	return int64(len(payload))*3/4 - padding
}
