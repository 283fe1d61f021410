package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestOAuthErrorError(t *testing.T) {
	err := ErrInvalidGrant("code is gone")
	if got := err.Error(); got != "invalid_grant: code is gone" {
		t.Errorf("Error() = %q", got)
	}

	bare := &OAuthError{Code: ErrorCodeServerError}
	if got := bare.Error(); got != "server_error" {
		t.Errorf("Error() = %q", got)
	}
}

func TestOAuthErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapping: %w", ErrInvalidGrant("first"))

	if !errors.Is(err, ErrInvalidGrant("other description")) {
		t.Error("errors with the same code should match regardless of description")
	}
	if errors.Is(err, ErrInvalidScope("x")) {
		t.Error("errors with different codes must not match")
	}

	var oauthErr *OAuthError
	if !errors.As(err, &oauthErr) {
		t.Fatal("errors.As failed")
	}
	if oauthErr.Code != ErrorCodeInvalidGrant {
		t.Errorf("Code = %q", oauthErr.Code)
	}
}

func TestOAuthErrorStatus(t *testing.T) {
	tests := []struct {
		err    *OAuthError
		status int
	}{
		{ErrInvalidRequest("x"), http.StatusBadRequest},
		{ErrInvalidClient("x"), http.StatusUnauthorized},
		{ErrInvalidGrant("x"), http.StatusBadRequest},
		{ErrInvalidScope("x"), http.StatusBadRequest},
		{ErrInvalidToken("x"), http.StatusUnauthorized},
		{ErrUnauthorizedClient("x"), http.StatusBadRequest},
		{ErrUnsupportedGrantType("x"), http.StatusBadRequest},
		{ErrUnauthorized("x"), http.StatusUnauthorized},
		{ErrNotRevocable("x"), http.StatusBadRequest},
		{ErrServerError("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
		})
	}
}
