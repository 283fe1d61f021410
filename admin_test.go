package oauth_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	oauthsrv "github.com/halcyonlabs/oauth2-core"
	"github.com/halcyonlabs/oauth2-core/internal/testutil"
	"github.com/halcyonlabs/oauth2-core/security"
)

func TestRegisterAdmin(t *testing.T) {
	ctx := context.Background()
	srv, _ := testutil.NewServer(t)

	admin, err := srv.RegisterAdmin(ctx, "root@example.com", "hunter22")
	if err != nil {
		t.Fatalf("RegisterAdmin: %v", err)
	}
	if admin.PasswordHash != "" {
		t.Error("returned admin must not carry the password hash")
	}
	if admin.ID == "" {
		t.Error("admin ID should be assigned")
	}

	_, err = srv.RegisterAdmin(ctx, "root@example.com", "other")
	assertOAuthCode(t, err, oauthsrv.ErrorCodeInvalidRequest)
}

func TestAdminLoginPasswordOnly(t *testing.T) {
	ctx := context.Background()
	srv, _ := testutil.NewServer(t)
	if _, err := srv.RegisterAdmin(ctx, "root@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}

	result, err := srv.AdminLogin(ctx, "root@example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if result.RequiresTOTP {
		t.Error("account without TOTP must not require a second factor")
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}

	claims, err := srv.VerifyAdminToken(result.Token)
	if err != nil {
		t.Fatalf("VerifyAdminToken: %v", err)
	}
	if claims.Email != "root@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	srv, _ := testutil.NewServer(t)
	if _, err := srv.RegisterAdmin(ctx, "root@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "root@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "hunter22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.AdminLogin(ctx, tt.email, tt.password, "")
			assertOAuthCode(t, err, oauthsrv.ErrorCodeUnauthorized)
		})
	}
}

func TestAdminTOTPFlow(t *testing.T) {
	ctx := context.Background()
	srv, store := testutil.NewServer(t)
	admin, err := srv.RegisterAdmin(ctx, "root@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}

	setup, err := srv.SetupTOTP(ctx, admin.ID)
	if err != nil {
		t.Fatalf("SetupTOTP: %v", err)
	}
	if setup.Secret == "" {
		t.Fatal("expected a shared secret")
	}
	if !strings.HasPrefix(setup.ProvisioningURI, "otpauth://totp/") {
		t.Errorf("ProvisioningURI = %q", setup.ProvisioningURI)
	}

	// Correct password, no code: the engine asks for the second factor
	result, err := srv.AdminLogin(ctx, "root@example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if !result.RequiresTOTP {
		t.Fatal("expected RequiresTOTP")
	}
	if result.Token != "" {
		t.Error("no session token before the second factor")
	}

	// Wrong password, no code: plain rejection, no enrollment leak
	if _, err := srv.AdminLogin(ctx, "root@example.com", "wrong", ""); err == nil {
		t.Fatal("wrong password must fail before the TOTP fork")
	}

	code, err := security.GenerateTOTPCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateTOTPCode: %v", err)
	}

	result, err = srv.AdminLogin(ctx, "root@example.com", "hunter22", code)
	if err != nil {
		t.Fatalf("AdminLogin with code: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}

	_, err = srv.AdminLogin(ctx, "root@example.com", "hunter22", "000000")
	assertOAuthCode(t, err, oauthsrv.ErrorCodeUnauthorized)

	// Successful login is recorded
	stored, err := store.GetAdminByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if stored.LastLoggedIn.IsZero() {
		t.Error("LastLoggedIn should be set after a successful login")
	}
}

func TestSetupTOTPOverwritesPreviousSecret(t *testing.T) {
	ctx := context.Background()
	srv, _ := testutil.NewServer(t)
	admin, err := srv.RegisterAdmin(ctx, "root@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}

	first, err := srv.SetupTOTP(ctx, admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := srv.SetupTOTP(ctx, admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Secret == second.Secret {
		t.Fatal("re-enrollment must generate a fresh secret")
	}

	oldCode, err := security.GenerateTOTPCode(first.Secret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.AdminLogin(ctx, "root@example.com", "hunter22", oldCode); err == nil {
		t.Error("codes from the overwritten enrollment must stop working")
	}

	newCode, err := security.GenerateTOTPCode(second.Secret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.AdminLogin(ctx, "root@example.com", "hunter22", newCode); err != nil {
		t.Errorf("codes from the current enrollment rejected: %v", err)
	}
}

func TestAdminLoginRateLimited(t *testing.T) {
	ctx := context.Background()
	srv, _ := testutil.NewServer(t)
	if _, err := srv.RegisterAdmin(ctx, "root@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}

	limiter := security.NewRateLimiter(1, 2, slog.Default())
	defer limiter.Stop()
	srv.SetRateLimiter(limiter)

	var limited bool
	for i := 0; i < 5; i++ {
		_, err := srv.AdminLogin(ctx, "root@example.com", "wrong", "")
		if err != nil && strings.Contains(err.Error(), "too many") {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected the limiter to kick in")
	}
}
