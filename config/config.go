// Package config loads engine configuration from the environment, with
// optional .env file support for development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	oauth "github.com/halcyonlabs/oauth2-core"
)

// Env is the environment-variable schema. The three signing keys are
// required; everything else has a safe default.
type Env struct {
	Issuer string `env:"OAUTH_ISSUER" envDefault:"oauth2-core"`

	AccessTokenSigningKey  string `env:"OAUTH_ACCESS_SIGNING_KEY,required,notEmpty"`
	RefreshTokenSigningKey string `env:"OAUTH_REFRESH_SIGNING_KEY,required,notEmpty"`
	AdminTokenSigningKey   string `env:"OAUTH_ADMIN_SIGNING_KEY,required,notEmpty"`

	CodeTTL         time.Duration `env:"OAUTH_CODE_TTL" envDefault:"10m"`
	AccessTokenTTL  time.Duration `env:"OAUTH_ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"OAUTH_REFRESH_TOKEN_TTL" envDefault:"336h"`
	AdminTokenTTL   time.Duration `env:"OAUTH_ADMIN_TOKEN_TTL" envDefault:"12h"`

	TOTPIssuer     string `env:"OAUTH_TOTP_ISSUER"`
	AllowPKCEPlain bool   `env:"OAUTH_ALLOW_PKCE_PLAIN" envDefault:"false"`

	// EncryptionKey, when set, encrypts TOTP secrets at rest.
	// Base64-encoded 32 bytes; see security.GenerateEncryptionKey.
	EncryptionKey string `env:"OAUTH_ENCRYPTION_KEY"`

	AuditEnabled bool `env:"OAUTH_AUDIT_ENABLED" envDefault:"true"`

	LoginRateLimit int `env:"OAUTH_LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginRateBurst int `env:"OAUTH_LOGIN_RATE_BURST" envDefault:"10"`

	TelemetryEnabled bool   `env:"OAUTH_TELEMETRY_ENABLED" envDefault:"false"`
	ServiceName      string `env:"OAUTH_SERVICE_NAME" envDefault:"oauth2-core"`
	ServiceVersion   string `env:"OAUTH_SERVICE_VERSION"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over file entries.
func Load() (*Env, error) {
	// Missing .env is the normal production case
	_ = godotenv.Load()

	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// OAuthConfig converts the environment schema into the engine config
func (e *Env) OAuthConfig() oauth.Config {
	return oauth.Config{
		Issuer:                 e.Issuer,
		AccessTokenSigningKey:  []byte(e.AccessTokenSigningKey),
		RefreshTokenSigningKey: []byte(e.RefreshTokenSigningKey),
		AdminTokenSigningKey:   []byte(e.AdminTokenSigningKey),
		CodeTTL:                e.CodeTTL,
		AccessTokenTTL:         e.AccessTokenTTL,
		RefreshTokenTTL:        e.RefreshTokenTTL,
		AdminTokenTTL:          e.AdminTokenTTL,
		TOTPIssuer:             e.TOTPIssuer,
		AllowPKCEPlain:         e.AllowPKCEPlain,
	}
}
