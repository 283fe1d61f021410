package oauth

import (
	"context"
	"errors"

	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

// Authenticate validates a bearer access token for a resource request and
// checks that its granted scope covers requiredScope. The token must both
// verify cryptographically and still exist in storage: a revoked token
// fails here even though its signature is intact.
func (s *Server) Authenticate(ctx context.Context, accessToken string, requiredScope []string) (*Principal, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken("access token is required")
	}

	claims, err := s.parseUserToken(s.config.AccessTokenSigningKey, accessToken)
	if err != nil {
		return nil, ErrInvalidToken("access token is invalid or expired")
	}

	record, err := s.stores.Tokens.GetTokenByAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrTokenExpired) {
			return nil, ErrInvalidToken("access token is invalid or expired")
		}
		return nil, s.storageFailure("get token by access", err)
	}

	if !scopeSatisfies(record.Scope, requiredScope) {
		return nil, ErrInvalidScope("token scope does not cover this request")
	}

	return &Principal{
		UserID:   claims.Subject,
		ClientID: record.ClientID,
		Scope:    record.Scope,
	}, nil
}

// ListUserSessions lists the user's active sessions. currentAccessToken,
// when non-empty, marks the session the call itself rides on.
func (s *Server) ListUserSessions(ctx context.Context, userID, currentAccessToken string) ([]*Session, error) {
	records, err := s.stores.Tokens.ListTokensByUser(ctx, userID)
	if err != nil {
		return nil, s.storageFailure("list tokens by user", err)
	}

	sessions := make([]*Session, 0, len(records))
	for _, record := range records {
		session := &Session{
			ClientID:         record.ClientID,
			Scope:            record.Scope,
			CreatedAt:        record.CreatedAt,
			AccessExpiresAt:  record.AccessExpiresAt,
			RefreshExpiresAt: record.RefreshExpiresAt,
			Current:          currentAccessToken != "" && record.AccessToken == currentAccessToken,
		}
		if client, err := s.stores.Clients.GetClientByInternalID(ctx, record.ClientID); err == nil {
			session.ClientID = client.ClientID
			session.ClientName = client.Name
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// ListUserAuthorizationCodes lists the user's pending authorization codes
func (s *Server) ListUserAuthorizationCodes(ctx context.Context, userID string) ([]*storage.AuthorizationCode, error) {
	codes, err := s.stores.Codes.ListAuthorizationCodesByUser(ctx, userID)
	if err != nil {
		return nil, s.storageFailure("list authorization codes by user", err)
	}
	return codes, nil
}

// RevokeToken revokes a token record through its refresh leg. Records
// issued without a refresh leg are not revocable through this path; they
// expire on their own.
func (s *Server) RevokeToken(ctx context.Context, accessToken string) error {
	record, err := s.stores.Tokens.GetTokenByAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrTokenExpired) {
			return ErrInvalidToken("access token is invalid or expired")
		}
		return s.storageFailure("get token by access", err)
	}

	if !record.HasRefreshToken() {
		return ErrNotRevocable("token has no refresh leg and cannot be revoked")
	}

	if err := s.stores.Tokens.DeleteTokenByRefresh(ctx, record.RefreshToken); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			// Lost a race with another revocation; the outcome stands
			return nil
		}
		return s.storageFailure("delete token by refresh", err)
	}

	s.audit().LogTokenRevoked(record.UserID, record.ClientID, "revoked")
	s.metrics().RecordTokenRevoked(ctx, "revoked")
	return nil
}

// RevokeUserSession revokes one of the user's own sessions, identified by
// either its access or its refresh token string. Revoking a session that
// belongs to someone else fails without revealing whether it exists.
func (s *Server) RevokeUserSession(ctx context.Context, userID, token string) error {
	record, err := s.stores.Tokens.GetTokenByAccess(ctx, token)
	if err != nil {
		record, err = s.stores.Tokens.GetTokenByRefresh(ctx, token)
	}
	if err != nil || record.UserID != userID {
		return ErrInvalidToken("token is invalid or expired")
	}

	if record.HasRefreshToken() {
		err = s.stores.Tokens.DeleteTokenByRefresh(ctx, record.RefreshToken)
	} else {
		err = s.stores.Tokens.DeleteTokenByAccess(ctx, record.AccessToken)
	}
	if err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		return s.storageFailure("delete token", err)
	}

	s.audit().LogTokenRevoked(userID, record.ClientID, "user_revoked")
	s.metrics().RecordTokenRevoked(ctx, "user_revoked")
	return nil
}

// RevokeUserAuthorizationCode revokes one of the user's own pending
// authorization codes
func (s *Server) RevokeUserAuthorizationCode(ctx context.Context, userID, code string) error {
	stored, err := s.stores.Codes.GetAuthorizationCode(ctx, code)
	if err != nil || stored.UserID != userID {
		return ErrInvalidRequest("authorization code is invalid or expired")
	}

	if err := s.stores.Codes.DeleteAuthorizationCode(ctx, code); err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			return nil
		}
		return s.storageFailure("delete authorization code", err)
	}
	return nil
}

// Logout terminates the session carrying the given access token
func (s *Server) Logout(ctx context.Context, accessToken string) error {
	record, err := s.stores.Tokens.GetTokenByAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrTokenExpired) {
			return ErrInvalidToken("access token is invalid or expired")
		}
		return s.storageFailure("get token by access", err)
	}

	if err := s.stores.Tokens.DeleteTokenByAccess(ctx, accessToken); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil
		}
		return s.storageFailure("delete token by access", err)
	}

	s.audit().LogTokenRevoked(record.UserID, record.ClientID, "logout")
	s.metrics().RecordTokenRevoked(ctx, "logout")
	return nil
}

// ChangePassword changes a user's password after re-verifying the current
// one. A valid session alone is not enough to rotate the credential.
func (s *Server) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidRequest("new password is required")
	}

	user, err := s.stores.Users.GetUser(ctx, userID)
	var passwordHash string
	if err == nil {
		passwordHash = user.PasswordHash
	}

	if !security.VerifyPassword(passwordHash, currentPassword) {
		s.audit().LogAuthFailure(userID, "", "password change with wrong current password")
		return ErrUnauthorized("current password is incorrect")
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return s.storageFailure("hash password", err)
	}

	if err := s.stores.Users.UpdateUserPassword(ctx, userID, newHash); err != nil {
		return s.storageFailure("update user password", err)
	}
	return nil
}
