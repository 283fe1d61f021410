// Package testutil provides shared fixtures for engine tests.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	oauth "github.com/halcyonlabs/oauth2-core"
	"github.com/halcyonlabs/oauth2-core/storage/memory"
)

// Deterministic signing keys, distinct per domain
var (
	AccessKey  = bytes.Repeat([]byte("a"), 32)
	RefreshKey = bytes.Repeat([]byte("r"), 32)
	AdminKey   = bytes.Repeat([]byte("m"), 32)
)

// NewConfig returns a valid engine config with test signing keys
func NewConfig() oauth.Config {
	return oauth.Config{
		Issuer:                 "test-issuer",
		AccessTokenSigningKey:  AccessKey,
		RefreshTokenSigningKey: RefreshKey,
		AdminTokenSigningKey:   AdminKey,
	}
}

// NewServer creates an engine backed by a fresh in-memory store
func NewServer(t *testing.T) (*oauth.Server, *memory.Store) {
	t.Helper()

	store := memory.NewWithConfig(0)
	srv, err := oauth.New(NewConfig(), oauth.Stores{
		Clients: store,
		Users:   store,
		Admins:  store,
		Codes:   store,
		Tokens:  store,
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, store
}

// RegisterClient registers a client with the given grant types, or all
// grant types when none are given
func RegisterClient(t *testing.T, srv *oauth.Server, grantTypes ...string) *oauth.ClientCredentials {
	t.Helper()

	creds, err := srv.RegisterClient(context.Background(), oauth.ClientRegistration{
		Name:         "test-client",
		RedirectURIs: []string{"https://app.example.com/callback"},
		GrantTypes:   grantTypes,
	})
	if err != nil {
		t.Fatalf("failed to register client: %v", err)
	}
	return creds
}

// RegisterUser creates an end-user account
func RegisterUser(t *testing.T, srv *oauth.Server, username, password string) string {
	t.Helper()

	user, err := srv.RegisterUser(context.Background(), username, password)
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	return user.ID
}
