// Package oauth implements an OAuth 2.1 credential lifecycle engine:
// issuing, validating, rotating, and revoking authorization codes, access
// tokens, and refresh tokens.
//
// The engine is transport-agnostic. It exposes the token endpoint logic
// (password, authorization_code with PKCE, and refresh_token grants), the
// authorization endpoint logic, resource-request authentication, session
// management, and an administrator surface with TOTP second-factor login.
// Embedding applications supply HTTP or RPC framing and implementations of
// the storage interfaces.
//
// Basic usage:
//
//	store := memory.New()
//	srv, err := oauth.New(cfg, oauth.Stores{
//		Clients: store,
//		Users:   store,
//		Admins:  store,
//		Codes:   store,
//		Tokens:  store,
//	}, slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	resp, err := srv.Token(ctx, oauth.TokenRequest{
//		GrantType:    oauth.GrantTypePassword,
//		ClientID:     clientID,
//		ClientSecret: clientSecret,
//		Username:     "alice",
//		Password:     "secret",
//	})
package oauth
