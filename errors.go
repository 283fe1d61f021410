package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuth error codes as they appear on the wire
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeUnauthorized         = "unauthorized"
	ErrorCodeNotRevocable         = "not_revocable"
	ErrorCodeServerError          = "server_error"
)

// OAuthError is a protocol-level error with a standard error code, a
// human-readable description, and the HTTP status an embedding transport
// should map it to. Descriptions never contain credential material.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

// Error implements the error interface
func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is reports whether target is an OAuthError with the same code
func (e *OAuthError) Is(target error) bool {
	var other *OAuthError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// ErrInvalidRequest indicates a malformed or incomplete request
func ErrInvalidRequest(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeInvalidRequest, Description: description, Status: http.StatusBadRequest}
}

// ErrInvalidClient indicates failed client authentication
func ErrInvalidClient(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeInvalidClient, Description: description, Status: http.StatusUnauthorized}
}

// ErrInvalidGrant indicates an invalid, expired, or already-consumed
// grant credential (code, refresh token, or resource-owner password)
func ErrInvalidGrant(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeInvalidGrant, Description: description, Status: http.StatusBadRequest}
}

// ErrInvalidScope indicates a scope request the client is not allowed
func ErrInvalidScope(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeInvalidScope, Description: description, Status: http.StatusBadRequest}
}

// ErrInvalidToken indicates a missing, unknown, or expired access token
// on a resource request
func ErrInvalidToken(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeInvalidToken, Description: description, Status: http.StatusUnauthorized}
}

// ErrUnauthorizedClient indicates the client may not use this grant type
func ErrUnauthorizedClient(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeUnauthorizedClient, Description: description, Status: http.StatusBadRequest}
}

// ErrUnsupportedGrantType indicates a grant type the engine does not implement
func ErrUnsupportedGrantType(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeUnsupportedGrantType, Description: description, Status: http.StatusBadRequest}
}

// ErrUnauthorized indicates failed end-user or admin authentication
func ErrUnauthorized(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeUnauthorized, Description: description, Status: http.StatusUnauthorized}
}

// ErrNotRevocable indicates a revocation attempt against a token record
// that has no refresh leg
func ErrNotRevocable(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeNotRevocable, Description: description, Status: http.StatusBadRequest}
}

// ErrServerError indicates an internal failure. The description is safe
// for clients; details stay in the server log.
func ErrServerError(description string) *OAuthError {
	return &OAuthError{Code: ErrorCodeServerError, Description: description, Status: http.StatusInternalServerError}
}
