package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging with PII protection. User
// identifiers are hashed before they reach the log stream; token and code
// strings never appear in events at all.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{logger: logger, enabled: enabled}
}

// Event represents a security audit event
type Event struct {
	Type      string
	UserID    string
	ClientID  string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"user_id_hash", hashForLogging(event.UserID),
		"client_id", event.ClientID,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogTokenIssued logs a successful token issuance
func (a *Auditor) LogTokenIssued(userID, clientID, grantType string, scope []string) {
	a.LogEvent(Event{
		Type:     "token_issued",
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"grant_type": grantType,
			"scope":      scope,
		},
	})
}

// LogTokenRevoked logs a token revocation
func (a *Auditor) LogTokenRevoked(userID, clientID, reason string) {
	a.LogEvent(Event{
		Type:     "token_revoked",
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogAuthFailure logs an authentication failure
func (a *Auditor) LogAuthFailure(userID, clientID, reason string) {
	a.LogEvent(Event{
		Type:     "auth_failure",
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogAdminLogin logs an admin login outcome. The email is hashed like a
// user identifier.
func (a *Auditor) LogAdminLogin(email string, success, usedTOTP bool) {
	a.LogEvent(Event{
		Type:   "admin_login",
		UserID: email,
		Details: map[string]any{
			"success":   success,
			"used_totp": usedTOTP,
		},
	})
}

// LogCodeRedeemed logs an authorization code redemption attempt
func (a *Auditor) LogCodeRedeemed(userID, clientID string, success bool) {
	a.LogEvent(Event{
		Type:     "code_redeemed",
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"success": success,
		},
	})
}

// hashForLogging creates a truncated SHA-256 hash of sensitive data
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
