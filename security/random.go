package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Charset complexity tiers for generated credentials
const (
	// ComplexityAlnumLower: digits and lowercase letters
	ComplexityAlnumLower = 1
	// ComplexityAlnum: digits and mixed-case letters
	ComplexityAlnum = 2
	// ComplexityFull: digits, mixed-case letters, and symbols
	ComplexityFull = 3
)

const (
	charsDigits  = "0123456789"
	charsLower   = "abcdefghijklmnopqrstuvwxyz"
	charsUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsSymbols = "!@#$%^&*()-_=+[]{}|;:,.<>?"
)

// GenerateRandomString generates a random string of the given length drawn
// from the charset tier. Randomness comes from crypto/rand; used for public
// client identifiers (ComplexityAlnum) and client secrets (ComplexityFull).
func GenerateRandomString(length, complexity int) (string, error) {
	chars := charsDigits + charsLower
	if complexity >= ComplexityAlnum {
		chars += charsUpper
	}
	if complexity >= ComplexityFull {
		chars += charsSymbols
	}

	max := big.NewInt(int64(len(chars)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

// RandomBytes returns n cryptographically random bytes
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
