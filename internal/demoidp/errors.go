package demoidp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shellbridge/authflow/internal/log"
)

type ErrorCode string

// Error codes written outside the fosite endpoints. The authorize and token
// handlers delegate their wire errors to fosite.
const (
	ErrInvalidRequest ErrorCode = "invalid_request"
	ErrInvalidToken   ErrorCode = "invalid_token"
)

type OAuthError struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return string(e.Code)
}

func NewOAuthError(code ErrorCode, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description}
}

func WriteJSONError(w http.ResponseWriter, status int, oauthErr *OAuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(oauthErr); err != nil {
		log.LogError("Failed to encode OAuth error response: %v", err)
	}
}
