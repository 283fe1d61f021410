package oauth

import (
	"crypto/subtle"
	"fmt"
	"time"
)

// Default lifetimes and sizes
const (
	DefaultCodeTTL         = 10 * time.Minute
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 14 * 24 * time.Hour
	DefaultAdminTokenTTL   = 12 * time.Hour

	DefaultCodeLength = 48
	DefaultTOTPSkew   = 2

	minSigningKeyLength = 32
)

// Config holds the engine configuration. The three signing keys are
// REQUIRED and must be distinct: access, refresh, and admin tokens are
// separate signing domains, so a token from one can never verify in
// another.
type Config struct {
	// Issuer is the value of the "iss" claim on minted tokens
	Issuer string

	// AccessTokenSigningKey signs access tokens (HMAC-SHA256, >= 32 bytes)
	AccessTokenSigningKey []byte

	// RefreshTokenSigningKey signs refresh tokens (HMAC-SHA256, >= 32 bytes)
	RefreshTokenSigningKey []byte

	// AdminTokenSigningKey signs admin session tokens (HMAC-SHA256, >= 32 bytes)
	AdminTokenSigningKey []byte

	// CodeTTL is the authorization code lifetime
	CodeTTL time.Duration

	// AccessTokenTTL is the access token lifetime used when the client
	// record does not override it
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the refresh token lifetime used when the client
	// record does not override it
	RefreshTokenTTL time.Duration

	// AdminTokenTTL is the admin session token lifetime
	AdminTokenTTL time.Duration

	// CodeLength is the length of issued authorization codes
	CodeLength int

	// TOTPIssuer is the issuer name shown in authenticator apps
	TOTPIssuer string

	// TOTPSkew is the number of 30-second periods accepted either side of
	// the current one during TOTP validation
	TOTPSkew uint

	// AllowPKCEPlain permits the "plain" code challenge method. S256 is
	// always accepted.
	AllowPKCEPlain bool
}

// applyDefaults fills zero-valued optional fields
func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "oauth2-core"
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = DefaultCodeTTL
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.AdminTokenTTL <= 0 {
		c.AdminTokenTTL = DefaultAdminTokenTTL
	}
	if c.CodeLength <= 0 {
		c.CodeLength = DefaultCodeLength
	}
	if c.TOTPIssuer == "" {
		c.TOTPIssuer = c.Issuer
	}
	if c.TOTPSkew == 0 {
		c.TOTPSkew = DefaultTOTPSkew
	}
}

// Validate checks the configuration. Missing or weak signing keys are a
// hard error: there is no generated fallback, a key that is not supplied
// explicitly does not survive restarts and silently invalidates every
// outstanding token.
func (c *Config) Validate() error {
	keys := []struct {
		name string
		key  []byte
	}{
		{"access token signing key", c.AccessTokenSigningKey},
		{"refresh token signing key", c.RefreshTokenSigningKey},
		{"admin token signing key", c.AdminTokenSigningKey},
	}

	for _, k := range keys {
		if len(k.key) == 0 {
			return fmt.Errorf("%s is required", k.name)
		}
		if len(k.key) < minSigningKeyLength {
			return fmt.Errorf("%s must be at least %d bytes, got %d",
				k.name, minSigningKeyLength, len(k.key))
		}
	}

	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if len(keys[i].key) == len(keys[j].key) &&
				subtle.ConstantTimeCompare(keys[i].key, keys[j].key) == 1 {
				return fmt.Errorf("%s and %s must be distinct", keys[i].name, keys[j].name)
			}
		}
	}

	return nil
}
