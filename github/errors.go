package github

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError represents a non-2xx response from the GitHub REST API on a
// fatal path. GitHub returns structured JSON error bodies; when the
// body is not parseable it is carried verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// parseAPIError builds an APIError from a status code and raw body.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode, Message: string(body)}

	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		apiError.Message = wire.Message
	}
	return apiError
}

// IsNotFound reports whether err is a GitHub 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}
