// Package security provides the security primitives used by the credential
// engine: password hashing with enumeration-safe verification, TOTP
// generation and validation, encryption at rest, rate limiting, audit
// logging, random credential generation, and clock-skew-tolerant expiry
// checks.
package security
