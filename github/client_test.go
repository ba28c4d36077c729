package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
}

func TestResolveInstallation_Found(t *testing.T) {
	var receivedPath, receivedAuth, receivedVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedAuth = r.Header.Get("Authorization")
		receivedVersion = r.Header.Get("X-GitHub-Api-Version")
		json.NewEncoder(w).Encode(Installation{ID: 998877})
	}))
	defer server.Close()

	client := newTestClient(server)
	id, found, err := client.ResolveInstallation(context.Background(), "assertion-jwt", "octocat", "hello-world")
	if err != nil {
		t.Fatalf("ResolveInstallation: %v", err)
	}
	if !found {
		t.Fatal("expected installation to be found")
	}
	if id != 998877 {
		t.Errorf("id = %d, want 998877", id)
	}
	if receivedPath != "/repos/octocat/hello-world/installation" {
		t.Errorf("path = %s", receivedPath)
	}
	if receivedAuth != "Bearer assertion-jwt" {
		t.Errorf("Authorization = %q", receivedAuth)
	}
	if receivedVersion != apiVersion {
		t.Errorf("X-GitHub-Api-Version = %q, want %q", receivedVersion, apiVersion)
	}
}

func TestResolveInstallation_AbsentIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, found, err := client.ResolveInstallation(context.Background(), "jwt", "octocat", "gone")
	if err != nil {
		t.Fatalf("a 404 must map to absent, not error: %v", err)
	}
	if found {
		t.Error("expected absent installation")
	}
}

func TestCreateInstallationToken(t *testing.T) {
	var receivedPath, receivedMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedMethod = r.Method
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": "ghs_fresh"})
	}))
	defer server.Close()

	client := newTestClient(server)
	token, err := client.CreateInstallationToken(context.Background(), "jwt", 998877)
	if err != nil {
		t.Fatalf("CreateInstallationToken: %v", err)
	}
	if token != "ghs_fresh" {
		t.Errorf("token = %q", token)
	}
	if receivedMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", receivedMethod)
	}
	if receivedPath != "/app/installations/998877/access_tokens" {
		t.Errorf("path = %s", receivedPath)
	}
}

func TestCreateInstallationToken_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "A JSON web token could not be decoded"})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.CreateInstallationToken(context.Background(), "bad", 1)
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiError.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", apiError.StatusCode)
	}
	if apiError.Message != "A JSON web token could not be decoded" {
		t.Errorf("Message = %q", apiError.Message)
	}
}

func TestCreateIssue(t *testing.T) {
	var receivedBody CreateIssueRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Issue{
			Number:  42,
			Title:   "Broken layout",
			HTMLURL: "https://github.com/octocat/hello-world/issues/42",
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	issue, err := client.CreateIssue(context.Background(), "ghs_x", "octocat", "hello-world", CreateIssueRequest{
		Title:  "Broken layout",
		Body:   "details",
		Labels: []string{"bug"},
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.Number != 42 {
		t.Errorf("Number = %d, want 42", issue.Number)
	}
	if receivedBody.Title != "Broken layout" {
		t.Errorf("request Title = %q", receivedBody.Title)
	}
	if len(receivedBody.Labels) != 1 || receivedBody.Labels[0] != "bug" {
		t.Errorf("request Labels = %v", receivedBody.Labels)
	}
}

func TestPutContents(t *testing.T) {
	var receivedPath, receivedMethod string
	var receivedBody struct {
		Message string `json:"message"`
		Content string `json:"content"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedMethod = r.Method
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]string{
				"download_url": "https://raw.githubusercontent.com/o/r/main/.feedback-assets/x.png",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	url, err := client.PutContents(context.Background(), "ghs_x", "o", "r",
		".feedback-assets/x.png", "Add feedback screenshot", "aGVsbG8=")
	if err != nil {
		t.Fatalf("PutContents: %v", err)
	}
	if url != "https://raw.githubusercontent.com/o/r/main/.feedback-assets/x.png" {
		t.Errorf("url = %q", url)
	}
	if receivedMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", receivedMethod)
	}
	if receivedPath != "/repos/o/r/contents/.feedback-assets/x.png" {
		t.Errorf("path = %s", receivedPath)
	}
	if receivedBody.Content != "aGVsbG8=" {
		t.Errorf("content = %q", receivedBody.Content)
	}
}

func TestGetRepository(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/hello-world" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Repository{FullName: "octocat/hello-world", Private: true})
	}))
	defer server.Close()

	client := newTestClient(server)
	repository, err := client.GetRepository(context.Background(), "ghs_x", "octocat", "hello-world")
	if err != nil {
		t.Fatalf("GetRepository: %v", err)
	}
	if !repository.Private {
		t.Error("expected private repository")
	}
}

func TestAPIError_UnparseableBody(t *testing.T) {
	apiError := parseAPIError(502, []byte("<html>bad gateway</html>"))
	if apiError.Message != "<html>bad gateway</html>" {
		t.Errorf("Message = %q", apiError.Message)
	}
	if apiError.StatusCode != 502 {
		t.Errorf("StatusCode = %d", apiError.StatusCode)
	}
}
