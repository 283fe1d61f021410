package oauth

import (
	"errors"
	"reflect"
	"testing"

	"github.com/halcyonlabs/oauth2-core/storage"
)

func fullClient() *storage.Client {
	return &storage.Client{
		ID:         "internal-1",
		ClientID:   "client-1",
		GrantTypes: []string{GrantTypePassword, GrantTypeAuthorizationCode, GrantTypeRefreshToken},
		Scopes:     []string{ScopeRead, ScopeWrite},
	}
}

func passwordOnlyClient() *storage.Client {
	c := fullClient()
	c.GrantTypes = []string{GrantTypePassword}
	return c
}

func TestNarrowScope(t *testing.T) {
	tests := []struct {
		name      string
		client    *storage.Client
		requested []string
		want      []string
		wantErr   bool
	}{
		{
			name:      "empty request defaults to read",
			client:    fullClient(),
			requested: nil,
			want:      []string{ScopeRead},
		},
		{
			name:      "full request against trusted client",
			client:    fullClient(),
			requested: []string{ScopeRead, ScopeWrite},
			want:      []string{ScopeRead, ScopeWrite},
		},
		{
			name:      "unknown scopes are dropped",
			client:    fullClient(),
			requested: []string{ScopeRead, ScopeWrite, "admin"},
			want:      []string{ScopeRead, ScopeWrite},
		},
		{
			name:      "write narrowed away for read-only client",
			client:    passwordOnlyClient(),
			requested: []string{ScopeRead, ScopeWrite},
			want:      []string{ScopeRead},
		},
		{
			name:      "nothing allowed is an error",
			client:    fullClient(),
			requested: []string{"admin"},
			wantErr:   true,
		},
		{
			name:      "write-only request against read-only client is an error",
			client:    passwordOnlyClient(),
			requested: []string{ScopeWrite},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := narrowScope(tt.client, tt.requested)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got scope %v", got)
				}
				var oauthErr *OAuthError
				if !errors.As(err, &oauthErr) || oauthErr.Code != ErrorCodeInvalidScope {
					t.Errorf("expected invalid_scope, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("narrowScope() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScopeSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required []string
		want     bool
	}{
		{"no requirement always passes", []string{ScopeRead}, nil, true},
		{"empty grant passes empty requirement", nil, nil, true},
		{"empty grant fails any requirement", nil, []string{ScopeRead}, false},
		{"subset passes", []string{ScopeRead, ScopeWrite}, []string{ScopeRead}, true},
		{"exact match passes", []string{ScopeRead}, []string{ScopeRead}, true},
		{"missing member fails", []string{ScopeRead}, []string{ScopeRead, ScopeWrite}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scopeSatisfies(tt.granted, tt.required); got != tt.want {
				t.Errorf("scopeSatisfies(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}

func TestParseFormatScope(t *testing.T) {
	if got := ParseScope(""); got != nil {
		t.Errorf("ParseScope(\"\") = %v, want nil", got)
	}
	if got := ParseScope("read  write"); !reflect.DeepEqual(got, []string{"read", "write"}) {
		t.Errorf("ParseScope() = %v", got)
	}
	if got := FormatScope([]string{"read", "write"}); got != "read write" {
		t.Errorf("FormatScope() = %q", got)
	}
}
