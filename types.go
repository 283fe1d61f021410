package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// Supported grant types
const (
	GrantTypePassword          = "password"
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// Well-known scopes
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// PKCE code challenge methods
const (
	CodeChallengeMethodS256  = "S256"
	CodeChallengeMethodPlain = "plain"
)

// TokenRequest carries the parameters of a token endpoint call. Which
// fields are required depends on GrantType.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// Password grant
	Username string
	Password string

	// Authorization code grant
	Code         string
	RedirectURI  string
	CodeVerifier string

	// Refresh grant
	RefreshToken string

	// Optional requested scope, space-delimited tokens already split
	Scope []string
}

// TokenResponse is the result of a successful grant
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	Scope        []string `json:"scope,omitempty"`

	accessExpiresAt time.Time
}

// Token converts the response into an *oauth2.Token for use with
// golang.org/x/oauth2 clients.
func (r *TokenResponse) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
		Expiry:       r.accessExpiresAt,
	}
}

// AuthorizeRequest carries the parameters of an authorization endpoint
// call for an already-authenticated end user.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        []string
	State        string
	UserID       string

	// PKCE
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeResponse is the result of a successful authorization: a
// single-use code the client exchanges at the token endpoint.
type AuthorizeResponse struct {
	Code      string
	State     string
	Scope     []string
	ExpiresAt time.Time
}

// Principal identifies the caller of an authenticated resource request
type Principal struct {
	UserID   string
	ClientID string
	Scope    []string
}

// AdminLoginResult is the outcome of an admin login attempt. When the
// account has TOTP enrolled and no code was supplied, RequiresTOTP is set
// and Token is empty; the caller retries with a code.
type AdminLoginResult struct {
	Token        string
	ExpiresAt    time.Time
	RequiresTOTP bool
}

// AdminClaims are the verified claims of an admin session token
type AdminClaims struct {
	AdminID string
	Email   string
}

// TOTPSetup is the result of TOTP enrollment: the shared secret and the
// otpauth:// provisioning URI to render as a QR code.
type TOTPSetup struct {
	Secret          string
	ProvisioningURI string
}

// Session describes one active token record from the end user's point of
// view. Token strings are never included.
type Session struct {
	ClientID         string
	ClientName       string
	Scope            []string
	CreatedAt        time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Current          bool
}
