package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a pre-computed bcrypt hash compared against when the
// account does not exist. This keeps verification cost identical for
// "no such account" and "wrong password", so neither timing nor error
// detail reveals which one happened.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes a plaintext password with bcrypt at default cost
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// If storedHash is empty (record missing or account without a credential),
// the comparison still runs against a dummy hash and fails.
func VerifyPassword(storedHash, password string) bool {
	hashToCompare := storedHash
	missing := false
	if hashToCompare == "" {
		hashToCompare = dummyHash
		missing = true
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashToCompare), []byte(password))
	return err == nil && !missing
}
