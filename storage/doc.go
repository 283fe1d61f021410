// Package storage provides interfaces and entities for persisting OAuth
// clients, users, admins, authorization codes, and token records.
//
// The package defines one narrow interface per concern:
//   - ClientStore: registered OAuth client applications
//   - UserStore: end-user accounts and password hashes
//   - AdminStore: administrator accounts (password + optional TOTP secret)
//   - CodeStore: single-use authorization codes
//   - TokenStore: issued access/refresh token records
//
// Implementations are provided in subpackages:
//   - storage/memory: In-memory storage for development, testing, and
//     single-instance deployments
//
// All methods accept context.Context for tracing and cancellation. Stores
// must provide atomic single-record operations and enforce uniqueness on
// code and token strings; RedeemAuthorizationCode and RedeemRefreshToken
// must be atomic get-check-delete operations so that at most one of any
// number of concurrent redemption attempts can succeed.
package storage
