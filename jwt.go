package oauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// tokenClaims are the claims carried by access and refresh tokens. The
// two kinds are told apart by signing key, not by claim content.
type tokenClaims struct {
	ClientID string   `json:"cid"`
	Scope    []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// adminTokenClaims are the claims carried by admin session tokens
type adminTokenClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// mintUserToken signs a token for userID in the given signing domain.
// The jti is fresh high-entropy randomness, so two tokens minted in the
// same second for the same subject are still distinct strings.
func (s *Server) mintUserToken(key []byte, userID, clientID string, scope []string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := tokenClaims{
		ClientID: clientID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        oauth2.GenerateVerifier(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// parseUserToken verifies a token against one signing domain
func (s *Server) parseUserToken(key []byte, tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// mintAdminToken signs an admin session token. Admin tokens live in their
// own signing domain and carry type "admin", so they can never pass as
// user access tokens even under key mismanagement.
func (s *Server) mintAdminToken(adminID, email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AdminTokenTTL)

	claims := adminTokenClaims{
		Email: email,
		Type:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        oauth2.GenerateVerifier(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.AdminTokenSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAdminToken verifies an admin session token and returns its claims
func (s *Server) VerifyAdminToken(tokenString string) (*AdminClaims, error) {
	claims := &adminTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.config.AdminTokenSigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrUnauthorized("invalid admin token")
	}
	if claims.Type != "admin" {
		return nil, ErrUnauthorized("invalid admin token")
	}
	return &AdminClaims{AdminID: claims.Subject, Email: claims.Email}, nil
}
