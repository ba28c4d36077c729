// Package github is a minimal typed client for the slice of the GitHub
// REST API this service touches: installation lookup, installation
// token exchange, issue creation, contents upload, and repository
// metadata. Every call is a single attempt — retries and backoff are
// deliberately absent; the ingestion pipeline defines which failures
// are fatal and which are swallowed.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// apiVersion pins the REST API version header so behavior stays
// consistent as GitHub evolves the API.
const apiVersion = "2022-11-28"

const defaultBaseURL = "https://api.github.com"

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root. Defaults to "https://api.github.com".
	BaseURL string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client issues authenticated single-attempt requests against the
// GitHub REST API. The bearer credential is supplied per call: an
// assertion for App-level endpoints, an installation token for
// repository-scoped ones. The client itself holds no credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ResolveInstallation looks up the App installation covering a
// repository, authenticating with the given assertion. A non-success
// response means the App is not installed there; that is a normal
// outcome, not an error.
func (c *Client) ResolveInstallation(ctx context.Context, assertion, owner, repo string) (int64, bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/installation", owner, repo)
	body, status, err := c.do(ctx, http.MethodGet, path, assertion, nil)
	if err != nil {
		return 0, false, err
	}
	if status < 200 || status >= 300 {
		return 0, false, nil
	}
	var installation Installation
	if err := json.Unmarshal(body, &installation); err != nil {
		return 0, false, fmt.Errorf("github: decoding installation: %w", err)
	}
	return installation.ID, true, nil
}

// CreateInstallationToken exchanges an assertion for a short-lived
// repository-scoped access token.
func (c *Client) CreateInstallationToken(ctx context.Context, assertion string, installationID int64) (string, error) {
	path := "/app/installations/" + strconv.FormatInt(installationID, 10) + "/access_tokens"
	body, status, err := c.do(ctx, http.MethodPost, path, assertion, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", parseAPIError(status, body)
	}
	var token accessToken
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("github: decoding access token: %w", err)
	}
	if token.Token == "" {
		return "", fmt.Errorf("github: token exchange returned empty token")
	}
	return token.Token, nil
}

// CreateIssue creates an issue in a repository. Single attempt; any
// non-success response is returned as an *APIError.
func (c *Client) CreateIssue(ctx context.Context, token, owner, repo string, request CreateIssueRequest) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	body, status, err := c.do(ctx, http.MethodPost, path, token, request)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, parseAPIError(status, body)
	}
	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("github: decoding issue: %w", err)
	}
	return &issue, nil
}

// PutContents writes a base64-encoded file into a repository via the
// contents API and returns the raw download URL of the stored file.
func (c *Client) PutContents(ctx context.Context, token, owner, repo, path, message, contentB64 string) (string, error) {
	request := struct {
		Message string `json:"message"`
		Content string `json:"content"`
	}{Message: message, Content: contentB64}

	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path)
	body, status, err := c.do(ctx, http.MethodPut, apiPath, token, request)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", parseAPIError(status, body)
	}
	var contents contentsResponse
	if err := json.Unmarshal(body, &contents); err != nil {
		return "", fmt.Errorf("github: decoding contents response: %w", err)
	}
	if contents.Content.DownloadURL == "" {
		return "", fmt.Errorf("github: contents response missing download URL")
	}
	return contents.Content.DownloadURL, nil
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, token, owner, repo string) (*Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	body, status, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, parseAPIError(status, body)
	}
	var repository Repository
	if err := json.Unmarshal(body, &repository); err != nil {
		return nil, fmt.Errorf("github: decoding repository: %w", err)
	}
	return &repository, nil
}

// do executes one request with the given bearer credential and returns
// the raw body and status. Transport errors are the only error return;
// HTTP-level failures are left to each caller, since "not found" is a
// normal outcome on some endpoints and fatal on others.
func (c *Client) do(ctx context.Context, method, path, bearer string, requestBody any) ([]byte, int, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, 0, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+bearer)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("github: reading response body: %w", err)
	}
	c.logger.Debug("github API call", "method", method, "path", path, "status", response.StatusCode)
	return body, response.StatusCode, nil
}
