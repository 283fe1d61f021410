package oauth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/halcyonlabs/oauth2-core/instrumentation"
	"github.com/halcyonlabs/oauth2-core/internal/util"
	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

// Retries on credential-string collisions. A collision means 256 bits of
// randomness repeated; more than a couple of retries indicates a broken
// randomness source, not bad luck.
const maxMintAttempts = 3

// Token handles a token endpoint request and dispatches on grant type.
// Client authentication happens before any grant-specific work, and fails
// identically for unknown clients and wrong secrets.
func (s *Server) Token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.token",
		trace.WithAttributes(instrumentation.SpanAttributes(req.GrantType, req.ClientID)...))
	defer span.End()

	resp, err := s.token(ctx, req)
	if err != nil {
		instrumentation.RecordError(span, err)
		s.metrics().RecordGrantFailure(ctx, req.GrantType, errorCode(err))
		return nil, err
	}

	instrumentation.RecordSuccess(span)
	s.metrics().RecordTokenIssued(ctx, req.GrantType)
	return resp, nil
}

func (s *Server) token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if req.GrantType == "" {
		return nil, ErrInvalidRequest("grant_type is required")
	}

	switch req.GrantType {
	case GrantTypePassword, GrantTypeAuthorizationCode, GrantTypeRefreshToken:
	default:
		return nil, ErrUnsupportedGrantType(fmt.Sprintf("grant type %q is not supported", req.GrantType))
	}

	client, err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	if !client.AllowsGrant(req.GrantType) {
		s.audit().LogAuthFailure("", client.ClientID, "grant type not allowed")
		return nil, ErrUnauthorizedClient(fmt.Sprintf("client is not authorized for grant type %q", req.GrantType))
	}

	switch req.GrantType {
	case GrantTypePassword:
		return s.passwordGrant(ctx, client, req)
	case GrantTypeAuthorizationCode:
		return s.authorizationCodeGrant(ctx, client, req)
	default:
		return s.refreshTokenGrant(ctx, client, req)
	}
}

// authenticateClient validates client credentials. The secret check runs
// one bcrypt comparison whether or not the client exists.
func (s *Server) authenticateClient(ctx context.Context, clientID, clientSecret string) (*storage.Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrInvalidClient("client credentials are required")
	}

	if err := s.stores.Clients.ValidateClientSecret(ctx, clientID, clientSecret); err != nil {
		s.audit().LogAuthFailure("", clientID, "client authentication failed")
		return nil, ErrInvalidClient("client authentication failed")
	}

	client, err := s.stores.Clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, ErrInvalidClient("client authentication failed")
	}
	return client, nil
}

// passwordGrant exchanges resource-owner credentials for a token pair
func (s *Server) passwordGrant(ctx context.Context, client *storage.Client, req TokenRequest) (*TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, ErrInvalidRequest("username and password are required")
	}

	user, err := s.stores.Users.GetUserByUsername(ctx, req.Username)
	var passwordHash string
	if err == nil {
		passwordHash = user.PasswordHash
	}

	// The bcrypt comparison runs whether or not the user exists
	if !security.VerifyPassword(passwordHash, req.Password) {
		s.audit().LogAuthFailure(req.Username, client.ClientID, "invalid user credentials")
		return nil, ErrInvalidGrant("invalid user credentials")
	}

	scope, err := narrowScope(client, req.Scope)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, client, user.ID, scope, req.GrantType)
}

// authorizationCodeGrant exchanges a single-use code for a token pair.
// The code is consumed atomically up front: on any later failure (wrong
// client, wrong redirect URI, failed PKCE) it is already gone and cannot
// be retried.
func (s *Server) authorizationCodeGrant(ctx context.Context, client *storage.Client, req TokenRequest) (*TokenResponse, error) {
	if req.Code == "" {
		return nil, ErrInvalidRequest("code is required")
	}
	if req.RedirectURI == "" {
		return nil, ErrInvalidRequest("redirect_uri is required")
	}

	code, err := s.stores.Codes.RedeemAuthorizationCode(ctx, req.Code)
	if err != nil {
		s.audit().LogCodeRedeemed("", client.ClientID, false)
		s.metrics().RecordRedemptionFailure(ctx, redemptionFailureReason(err))
		if errors.Is(err, storage.ErrCodeNotFound) || errors.Is(err, storage.ErrCodeExpired) {
			return nil, ErrInvalidGrant("authorization code is invalid or expired")
		}
		return nil, s.storageFailure("redeem authorization code", err)
	}

	if code.ClientID != client.ID {
		s.audit().LogCodeRedeemed(code.UserID, client.ClientID, false)
		s.metrics().RecordRedemptionFailure(ctx, "client_mismatch")
		return nil, ErrInvalidGrant("authorization code was not issued to this client")
	}

	if code.RedirectURI != req.RedirectURI {
		s.audit().LogCodeRedeemed(code.UserID, client.ClientID, false)
		s.metrics().RecordRedemptionFailure(ctx, "redirect_uri_mismatch")
		return nil, ErrInvalidGrant("redirect_uri does not match the authorization request")
	}

	if err := verifyPKCE(code, req.CodeVerifier); err != nil {
		s.audit().LogCodeRedeemed(code.UserID, client.ClientID, false)
		s.metrics().RecordRedemptionFailure(ctx, "pkce_failed")
		return nil, err
	}

	s.audit().LogCodeRedeemed(code.UserID, client.ClientID, true)
	s.metrics().RecordCodeRedeemed(ctx)

	return s.issueTokens(ctx, client, code.UserID, code.Scope, req.GrantType)
}

// refreshTokenGrant rotates a refresh token: the presented record is
// consumed atomically and a fresh pair is issued. A concurrent replay of
// the same refresh token loses the race and gets invalid_grant.
func (s *Server) refreshTokenGrant(ctx context.Context, client *storage.Client, req TokenRequest) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidRequest("refresh_token is required")
	}

	old, err := s.stores.Tokens.RedeemRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrTokenExpired) {
			s.audit().LogAuthFailure("", client.ClientID, "refresh token invalid or expired")
			return nil, ErrInvalidGrant("refresh token is invalid or expired")
		}
		return nil, s.storageFailure("redeem refresh token", err)
	}

	if old.ClientID != client.ID {
		// The record is already consumed; do not hand its session to a
		// different client.
		s.audit().LogAuthFailure(old.UserID, client.ClientID, "refresh token client mismatch")
		return nil, ErrInvalidGrant("refresh token was not issued to this client")
	}

	scope := old.Scope
	if len(req.Scope) > 0 {
		// Scope may be narrowed on refresh, never widened
		if !scopeSatisfies(old.Scope, req.Scope) {
			return nil, ErrInvalidScope("requested scope exceeds the originally granted scope")
		}
		scope = req.Scope
	}

	resp, err := s.issueTokens(ctx, client, old.UserID, scope, req.GrantType)
	if err != nil {
		return nil, err
	}
	s.metrics().RecordTokenRefreshed(ctx)
	return resp, nil
}

// issueTokens mints and persists an access/refresh pair. Uniqueness of
// the token strings is a storage invariant; on a duplicate the pair is
// re-minted with fresh randomness.
func (s *Server) issueTokens(ctx context.Context, client *storage.Client, userID string, scope []string, grantType string) (*TokenResponse, error) {
	accessTTL := client.AccessTokenTTL()
	if accessTTL <= 0 {
		accessTTL = s.config.AccessTokenTTL
	}
	refreshTTL := client.RefreshTokenTTL()
	if refreshTTL <= 0 {
		refreshTTL = s.config.RefreshTokenTTL
	}

	var lastErr error
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		accessToken, accessExpiresAt, err := s.mintUserToken(s.config.AccessTokenSigningKey, userID, client.ID, scope, accessTTL)
		if err != nil {
			return nil, s.storageFailure("mint access token", err)
		}
		refreshToken, refreshExpiresAt, err := s.mintUserToken(s.config.RefreshTokenSigningKey, userID, client.ID, scope, refreshTTL)
		if err != nil {
			return nil, s.storageFailure("mint refresh token", err)
		}

		record := &storage.Token{
			AccessToken:      accessToken,
			AccessExpiresAt:  accessExpiresAt,
			RefreshToken:     refreshToken,
			RefreshExpiresAt: refreshExpiresAt,
			ClientID:         client.ID,
			UserID:           userID,
			Scope:            scope,
			CreatedAt:        time.Now(),
		}

		err = s.stores.Tokens.SaveToken(ctx, record)
		if err == nil {
			s.audit().LogTokenIssued(userID, client.ClientID, grantType, scope)
			s.logger.Debug("Token pair issued",
				"client_id", client.ClientID,
				"grant_type", grantType,
				"access_token_prefix", util.SafeTruncate(accessToken, 8))

			return &TokenResponse{
				AccessToken:     accessToken,
				TokenType:       "Bearer",
				ExpiresIn:       int64(accessTTL.Seconds()),
				RefreshToken:    refreshToken,
				Scope:           scope,
				accessExpiresAt: accessExpiresAt,
			}, nil
		}
		if !errors.Is(err, storage.ErrDuplicateToken) {
			return nil, s.storageFailure("save token", err)
		}
		lastErr = err
	}

	return nil, s.storageFailure("save token", lastErr)
}

// Authorize handles an authorization endpoint request for an end user who
// has already authenticated, and issues a single-use authorization code.
func (s *Server) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.authorize",
		trace.WithAttributes(attribute.String(instrumentation.AttrClientID, req.ClientID)))
	defer span.End()

	resp, err := s.authorize(ctx, req)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	instrumentation.RecordSuccess(span)
	s.metrics().RecordCodeIssued(ctx)
	return resp, nil
}

func (s *Server) authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.ResponseType != "code" {
		return nil, ErrInvalidRequest("response_type must be \"code\"")
	}
	if req.UserID == "" {
		return nil, ErrInvalidRequest("user is not authenticated")
	}

	client, err := s.stores.Clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, ErrInvalidClient("unknown client")
	}
	if !client.AllowsGrant(GrantTypeAuthorizationCode) {
		return nil, ErrUnauthorizedClient("client is not authorized for the authorization code flow")
	}
	if !client.AllowsRedirectURI(req.RedirectURI) {
		return nil, ErrInvalidRequest("redirect_uri is not registered for this client")
	}

	challengeMethod := req.CodeChallengeMethod
	if req.CodeChallenge != "" {
		switch challengeMethod {
		case "":
			challengeMethod = CodeChallengeMethodS256
		case CodeChallengeMethodS256:
		case CodeChallengeMethodPlain:
			if !s.config.AllowPKCEPlain {
				return nil, ErrInvalidRequest("code challenge method \"plain\" is not allowed")
			}
		default:
			return nil, ErrInvalidRequest(fmt.Sprintf("unsupported code challenge method %q", challengeMethod))
		}
	}

	user, err := s.stores.Users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, ErrUnauthorized("unknown user")
	}

	scope, err := narrowScope(client, req.Scope)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.config.CodeTTL)

	var lastErr error
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		codeString, err := s.generateAuthorizationCode(client.ClientID, user, scope)
		if err != nil {
			return nil, s.storageFailure("generate authorization code", err)
		}

		code := &storage.AuthorizationCode{
			Code:                codeString,
			ClientID:            client.ID,
			UserID:              req.UserID,
			RedirectURI:         req.RedirectURI,
			Scope:               scope,
			CodeChallenge:       req.CodeChallenge,
			CodeChallengeMethod: challengeMethod,
			CreatedAt:           now,
			ExpiresAt:           expiresAt,
		}

		err = s.stores.Codes.SaveAuthorizationCode(ctx, code)
		if err == nil {
			s.logger.Debug("Authorization code issued",
				"client_id", client.ClientID,
				"code_prefix", util.SafeTruncate(codeString, 8))

			return &AuthorizeResponse{
				Code:      codeString,
				State:     req.State,
				Scope:     scope,
				ExpiresAt: expiresAt,
			}, nil
		}
		if !errors.Is(err, storage.ErrDuplicateCode) {
			return nil, s.storageFailure("save authorization code", err)
		}
		lastErr = err
	}

	return nil, s.storageFailure("save authorization code", lastErr)
}

// generateAuthorizationCode derives a code from the grant parameters, the
// current time, and fresh randomness, hashed so the code itself reveals
// none of them
func (s *Server) generateAuthorizationCode(clientID string, user *storage.User, scope []string) (string, error) {
	random, err := security.RandomBytes(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate code entropy: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(clientID))
	h.Write([]byte(user.ID))
	h.Write([]byte(user.Username))
	h.Write([]byte(FormatScope(scope)))
	h.Write([]byte(strconv.FormatInt(time.Now().UnixMilli(), 10)))
	h.Write(random)

	code := hex.EncodeToString(h.Sum(nil))
	if len(code) > s.config.CodeLength {
		code = code[:s.config.CodeLength]
	}
	return code, nil
}

// verifyPKCE checks a code verifier against the challenge bound to the
// code at authorization time
func verifyPKCE(code *storage.AuthorizationCode, verifier string) error {
	if code.CodeChallenge == "" {
		return nil
	}
	if verifier == "" {
		return ErrInvalidGrant("code_verifier is required")
	}

	var derived string
	switch code.CodeChallengeMethod {
	case CodeChallengeMethodPlain:
		derived = verifier
	default:
		derived = oauth2.S256ChallengeFromVerifier(verifier)
	}

	if subtle.ConstantTimeCompare([]byte(derived), []byte(code.CodeChallenge)) != 1 {
		return ErrInvalidGrant("code_verifier does not match the code challenge")
	}
	return nil
}

// audit returns the auditor; its Log* methods are nil-safe
func (s *Server) audit() *security.Auditor {
	return s.auditor
}

// storageFailure logs an internal failure with detail and returns an
// opaque server_error to the caller
func (s *Server) storageFailure(operation string, err error) error {
	s.logger.Error("Storage operation failed", "operation", operation, "error", err)
	return ErrServerError("internal error")
}

// errorCode extracts the protocol error code for metrics labeling
func errorCode(err error) string {
	var oauthErr *OAuthError
	if errors.As(err, &oauthErr) {
		return oauthErr.Code
	}
	return ErrorCodeServerError
}

// redemptionFailureReason maps storage errors to metric labels
func redemptionFailureReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrCodeExpired):
		return "expired"
	case errors.Is(err, storage.ErrCodeNotFound):
		return "not_found"
	default:
		return "storage_error"
	}
}
