package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

// RegisterAdmin creates an administrator account
func (s *Server) RegisterAdmin(ctx context.Context, email, password string) (*storage.Admin, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidRequest("email and password are required")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, s.storageFailure("hash password", err)
	}

	admin := &storage.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.stores.Admins.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicateAdmin) {
			return nil, ErrInvalidRequest("email is already registered")
		}
		return nil, s.storageFailure("create admin", err)
	}

	return MaskAdmin(admin), nil
}

// AdminLogin authenticates an administrator with email and password, and
// a TOTP code when the account has one enrolled.
//
// The TOTP fork: an enrolled account presented without a code does NOT
// fail; the result carries RequiresTOTP so the caller can prompt for the
// second factor and retry. Credentials are still fully verified first, so
// the fork reveals TOTP enrollment only to someone who already holds the
// password.
func (s *Server) AdminLogin(ctx context.Context, email, password, totpCode string) (*AdminLoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidRequest("email and password are required")
	}

	if s.limiter != nil && !s.limiter.Allow(email) {
		s.audit().LogAdminLogin(email, false, false)
		return nil, ErrUnauthorized("too many login attempts")
	}

	admin, err := s.stores.Admins.GetAdminByEmail(ctx, email)
	var passwordHash string
	if err == nil {
		passwordHash = admin.PasswordHash
	}

	// One bcrypt comparison whether or not the account exists
	if !security.VerifyPassword(passwordHash, password) {
		s.audit().LogAdminLogin(email, false, false)
		s.metrics().RecordAdminLogin(ctx, false)
		return nil, ErrUnauthorized("invalid credentials")
	}

	usedTOTP := false
	if admin.TOTPSecret != "" {
		if totpCode == "" {
			return &AdminLoginResult{RequiresTOTP: true}, nil
		}
		if !security.ValidateTOTP(totpCode, admin.TOTPSecret, s.config.TOTPSkew) {
			s.audit().LogAdminLogin(email, false, true)
			s.metrics().RecordAdminLogin(ctx, false)
			return nil, ErrUnauthorized("invalid credentials")
		}
		usedTOTP = true
	}

	if err := s.stores.Admins.TouchAdminLogin(ctx, admin.ID, time.Now()); err != nil {
		return nil, s.storageFailure("touch admin login", err)
	}

	token, expiresAt, err := s.mintAdminToken(admin.ID, admin.Email)
	if err != nil {
		return nil, s.storageFailure("mint admin token", err)
	}

	s.audit().LogAdminLogin(email, true, usedTOTP)
	s.metrics().RecordAdminLogin(ctx, true)

	return &AdminLoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// SetupTOTP enrolls (or re-enrolls) TOTP for an admin account. Any
// previous secret is overwritten, invalidating codes from the old
// enrollment immediately.
func (s *Server) SetupTOTP(ctx context.Context, adminID string) (*TOTPSetup, error) {
	admin, err := s.stores.Admins.GetAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, storage.ErrAdminNotFound) {
			return nil, ErrUnauthorized("unknown admin")
		}
		return nil, s.storageFailure("get admin", err)
	}

	enrollment, err := security.GenerateTOTPSecret(s.config.TOTPIssuer, admin.Email)
	if err != nil {
		return nil, s.storageFailure("generate TOTP secret", err)
	}

	if err := s.stores.Admins.SetAdminTOTPSecret(ctx, adminID, enrollment.Secret); err != nil {
		return nil, s.storageFailure("set admin TOTP secret", err)
	}

	s.logger.Info("Admin TOTP enrolled", "admin_id", adminID)

	return &TOTPSetup{
		Secret:          enrollment.Secret,
		ProvisioningURI: enrollment.ProvisioningURI,
	}, nil
}
