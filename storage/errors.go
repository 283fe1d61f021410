package storage

import "errors"

// Sentinel errors returned by storage implementations. Callers match with
// errors.Is; implementations may wrap these with additional context.
var (
	// ErrClientNotFound indicates no client exists for the given identifier
	ErrClientNotFound = errors.New("client not found")

	// ErrDuplicateClient indicates the public client ID is already taken
	ErrDuplicateClient = errors.New("client already exists")

	// ErrUserNotFound indicates no user exists for the given identifier
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser indicates the username is already taken
	ErrDuplicateUser = errors.New("user already exists")

	// ErrAdminNotFound indicates no admin exists for the given identifier
	ErrAdminNotFound = errors.New("admin not found")

	// ErrDuplicateAdmin indicates the admin email is already taken
	ErrDuplicateAdmin = errors.New("admin already exists")

	// ErrCodeNotFound indicates the authorization code does not exist or
	// was already consumed
	ErrCodeNotFound = errors.New("authorization code not found")

	// ErrCodeExpired indicates the authorization code is past its expiry
	ErrCodeExpired = errors.New("authorization code expired")

	// ErrDuplicateCode indicates the code string already exists. Callers
	// should treat this as transient and retry with fresh randomness.
	ErrDuplicateCode = errors.New("authorization code already exists")

	// ErrTokenNotFound indicates no token record matches the given string
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired indicates the matched token leg is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrDuplicateToken indicates a token string collides with an existing
	// record. Callers should treat this as transient and retry with fresh
	// randomness.
	ErrDuplicateToken = errors.New("token already exists")
)
