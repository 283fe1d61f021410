package storage

import (
	"context"
	"time"
)

// ClientStore defines the interface for managing registered OAuth clients.
// All methods accept context.Context for tracing and cancellation.
type ClientStore interface {
	// CreateClient persists a new client. Fails with ErrDuplicateClient if
	// the public client ID is already taken.
	CreateClient(ctx context.Context, client *Client) error

	// GetClient retrieves a client by its public client ID
	GetClient(ctx context.Context, clientID string) (*Client, error)

	// GetClientByInternalID retrieves a client by its internal record ID
	GetClientByInternalID(ctx context.Context, id string) (*Client, error)

	// UpdateClient replaces a stored client record (matched by internal ID)
	UpdateClient(ctx context.Context, client *Client) error

	// DeleteClient removes a client by internal ID
	DeleteClient(ctx context.Context, id string) error

	// ValidateClientSecret validates a client's secret.
	// Implementations MUST NOT leak via timing or error detail whether the
	// client exists or the secret mismatched: both fail identically.
	ValidateClientSecret(ctx context.Context, clientID, clientSecret string) error

	// ListClients lists all registered clients (for admin purposes)
	ListClients(ctx context.Context) ([]*Client, error)
}

// UserStore defines the interface for managing end-user accounts.
// All methods accept context.Context for tracing and cancellation.
type UserStore interface {
	// CreateUser persists a new user. Fails with ErrDuplicateUser if the
	// username is already taken.
	CreateUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by internal ID
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by unique username
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserPassword replaces a user's stored password hash
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	// DeleteUser removes a user by internal ID
	DeleteUser(ctx context.Context, id string) error

	// ListUsers lists all users (for admin purposes)
	ListUsers(ctx context.Context) ([]*User, error)
}

// AdminStore defines the interface for managing administrator accounts.
// All methods accept context.Context for tracing and cancellation.
type AdminStore interface {
	// CreateAdmin persists a new admin account
	CreateAdmin(ctx context.Context, admin *Admin) error

	// GetAdmin retrieves an admin by internal ID
	GetAdmin(ctx context.Context, id string) (*Admin, error)

	// GetAdminByEmail retrieves an admin by unique email
	GetAdminByEmail(ctx context.Context, email string) (*Admin, error)

	// SetAdminTOTPSecret stores the TOTP shared secret for an admin,
	// overwriting any previous secret
	SetAdminTOTPSecret(ctx context.Context, id, secret string) error

	// TouchAdminLogin records the admin's last successful login time
	TouchAdminLogin(ctx context.Context, id string, at time.Time) error
}

// CodeStore defines the interface for managing single-use authorization codes.
// All methods accept context.Context for tracing and cancellation.
type CodeStore interface {
	// SaveAuthorizationCode persists an issued code. Fails with
	// ErrDuplicateCode if the code string already exists; callers are
	// expected to retry with fresh randomness.
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// GetAuthorizationCode retrieves a code without consuming it.
	// Expired codes are reported as ErrCodeExpired regardless of row
	// existence.
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// RedeemAuthorizationCode atomically retrieves and deletes a code.
	// This is the single-use guarantee: under concurrent redemption
	// attempts for the same code, at most one call succeeds; the rest
	// fail with ErrCodeNotFound. An expired code is deleted and reported
	// as ErrCodeExpired.
	// SECURITY: This operation MUST be atomic.
	RedeemAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// DeleteAuthorizationCode removes a code (explicit revocation).
	// Deleting an already-consumed code fails with ErrCodeNotFound.
	DeleteAuthorizationCode(ctx context.Context, code string) error

	// ListAuthorizationCodesByUser lists the active codes issued for a user
	ListAuthorizationCodesByUser(ctx context.Context, userID string) ([]*AuthorizationCode, error)
}

// TokenStore defines the interface for managing issued token records.
// A record holds the access leg and, optionally, the refresh leg of one
// grant; both legs live and die together.
// All methods accept context.Context for tracing and cancellation.
type TokenStore interface {
	// SaveToken persists a token record. Fails with ErrDuplicateToken if
	// either token string already exists (uniqueness is a hard invariant).
	SaveToken(ctx context.Context, token *Token) error

	// GetTokenByAccess retrieves a record by its access-token string.
	// An expired access leg is reported as ErrTokenExpired.
	GetTokenByAccess(ctx context.Context, accessToken string) (*Token, error)

	// GetTokenByRefresh retrieves a record by its refresh-token string.
	// An expired refresh leg is reported as ErrTokenExpired.
	GetTokenByRefresh(ctx context.Context, refreshToken string) (*Token, error)

	// RedeemRefreshToken atomically retrieves and deletes a record by its
	// refresh-token string. This is the rotation point: only ONE of any
	// number of concurrent refresh attempts can succeed; the rest fail
	// with ErrTokenNotFound.
	// SECURITY: This operation MUST be atomic.
	RedeemRefreshToken(ctx context.Context, refreshToken string) (*Token, error)

	// DeleteTokenByRefresh removes a record by its refresh-token string,
	// killing both legs
	DeleteTokenByRefresh(ctx context.Context, refreshToken string) error

	// DeleteTokenByAccess removes a record by its access-token string,
	// killing both legs
	DeleteTokenByAccess(ctx context.Context, accessToken string) error

	// ListTokensByUser lists the active token records for a user
	ListTokensByUser(ctx context.Context, userID string) ([]*Token, error)
}

// Client represents a registered OAuth client application
type Client struct {
	ID                   string // internal record ID
	ClientID             string // public identifier
	SecretHash           string // bcrypt hash, never returned across the trust boundary
	Name                 string
	RedirectURIs         []string
	GrantTypes           []string
	Scopes               []string
	AccessTokenLifetime  int64 // seconds
	RefreshTokenLifetime int64 // seconds
	CreatedAt            time.Time
}

// User represents an end-user account. PasswordHash is the only secret
// field; plaintext passwords are never stored.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Admin represents an administrator account. TOTPSecret is empty until
// two-factor enrollment; login behavior forks on its presence.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	TOTPSecret   string
	LastLoggedIn time.Time
	CreatedAt    time.Time
}

// AuthorizationCode represents an issued single-use authorization code
type AuthorizationCode struct {
	Code                string
	ClientID            string // internal client ID
	UserID              string
	RedirectURI         string
	Scope               []string
	CodeChallenge       string
	CodeChallengeMethod string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// Token represents an issued token record: the access leg plus the
// optional refresh leg of one successful grant
type Token struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string // empty for records issued without a refresh leg
	RefreshExpiresAt time.Time
	ClientID         string // internal client ID
	UserID           string
	Scope            []string
	CreatedAt        time.Time
}
