package storage

import (
	"time"

	"golang.org/x/oauth2"
)

// HasRefreshToken reports whether the record carries a refresh leg.
// Records without one cannot be revoked through the refresh path.
func (t *Token) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// HasScope reports whether the record's scope set contains scope
func (t *Token) HasScope(scope string) bool {
	for _, s := range t.Scope {
		if s == scope {
			return true
		}
	}
	return false
}

// OAuth2Token converts the record to a golang.org/x/oauth2 Token for
// interop with standard OAuth2 client tooling. The refresh leg is carried
// when present; Expiry is the access leg's expiry.
func (t *Token) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       t.AccessExpiresAt,
	}
}

// Clone returns a copy of the record. Stores return clones so callers can
// never mutate stored state through a returned pointer.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Scope = append([]string(nil), t.Scope...)
	return &cp
}

// Clone returns a copy of the code record with its own scope slice
func (c *AuthorizationCode) Clone() *AuthorizationCode {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Scope = append([]string(nil), c.Scope...)
	return &cp
}

// Clone returns a copy of the client with its own slice fields
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	cp := *c
	cp.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	cp.GrantTypes = append([]string(nil), c.GrantTypes...)
	cp.Scopes = append([]string(nil), c.Scopes...)
	return &cp
}

// AllowsGrant reports whether the client is configured for the grant type
func (c *Client) AllowsGrant(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirectURI reports whether redirectURI is registered for the
// client. Matching is exact; no prefix or pattern logic.
func (c *Client) AllowsRedirectURI(redirectURI string) bool {
	for _, uri := range c.RedirectURIs {
		if uri == redirectURI {
			return true
		}
	}
	return false
}

// AccessTokenTTL returns the client's access-token lifetime as a duration
func (c *Client) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenLifetime) * time.Second
}

// RefreshTokenTTL returns the client's refresh-token lifetime as a duration
func (c *Client) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenLifetime) * time.Second
}
