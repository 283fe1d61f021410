package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewWithConfig(0)
	t.Cleanup(s.Stop)
	return s
}

func testClient(id, clientID string) *storage.Client {
	return &storage.Client{
		ID:           id,
		ClientID:     clientID,
		SecretHash:   "$2a$10$hash",
		Name:         "test",
		RedirectURIs: []string{"https://app.example.com/cb"},
		GrantTypes:   []string{"password"},
		CreatedAt:    time.Now(),
	}
}

func testCode(code, userID string, expiresAt time.Time) *storage.AuthorizationCode {
	return &storage.AuthorizationCode{
		Code:        code,
		ClientID:    "client-internal",
		UserID:      userID,
		RedirectURI: "https://app.example.com/cb",
		Scope:       []string{"read"},
		CreatedAt:   time.Now(),
		ExpiresAt:   expiresAt,
	}
}

func testToken(access, refresh, userID string) *storage.Token {
	return &storage.Token{
		AccessToken:      access,
		AccessExpiresAt:  time.Now().Add(time.Hour),
		RefreshToken:     refresh,
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
		ClientID:         "client-internal",
		UserID:           userID,
		Scope:            []string{"read"},
		CreatedAt:        time.Now(),
	}
}

func TestClientCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	client := testClient("id-1", "client-1")
	if err := s.CreateClient(ctx, client); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	if err := s.CreateClient(ctx, testClient("id-2", "client-1")); !errors.Is(err, storage.ErrDuplicateClient) {
		t.Errorf("duplicate client ID: got %v", err)
	}

	got, err := s.GetClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if got.Name != "test" {
		t.Errorf("Name = %q", got.Name)
	}

	// Returned clone must not alias stored state
	got.Name = "mutated"
	again, _ := s.GetClient(ctx, "client-1")
	if again.Name != "test" {
		t.Error("stored client mutated through returned pointer")
	}

	byInternal, err := s.GetClientByInternalID(ctx, "id-1")
	if err != nil || byInternal.ClientID != "client-1" {
		t.Errorf("GetClientByInternalID: %v, %v", byInternal, err)
	}

	client.Name = "updated"
	if err := s.UpdateClient(ctx, client); err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	got, _ = s.GetClient(ctx, "client-1")
	if got.Name != "updated" {
		t.Errorf("Name after update = %q", got.Name)
	}

	renamed := client.Clone()
	renamed.ClientID = "other-public-id"
	if err := s.UpdateClient(ctx, renamed); err == nil {
		t.Error("public client ID must be immutable")
	}

	if err := s.DeleteClient(ctx, "id-1"); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	if _, err := s.GetClient(ctx, "client-1"); !errors.Is(err, storage.ErrClientNotFound) {
		t.Errorf("after delete: %v", err)
	}
}

func TestValidateClientSecret(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, err := security.HashPassword("the-secret")
	if err != nil {
		t.Fatal(err)
	}
	client := testClient("id-1", "client-1")
	client.SecretHash = hash
	if err := s.CreateClient(ctx, client); err != nil {
		t.Fatal(err)
	}

	if err := s.ValidateClientSecret(ctx, "client-1", "the-secret"); err != nil {
		t.Errorf("correct secret rejected: %v", err)
	}

	wrongSecret := s.ValidateClientSecret(ctx, "client-1", "wrong")
	unknownClient := s.ValidateClientSecret(ctx, "no-such-client", "the-secret")
	if wrongSecret == nil || unknownClient == nil {
		t.Fatal("both failure modes must error")
	}
	if wrongSecret.Error() != unknownClient.Error() {
		t.Error("failure modes must be indistinguishable")
	}
}

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user := &storage.User{ID: "u-1", Username: "alice", PasswordHash: "h", CreatedAt: time.Now()}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, &storage.User{ID: "u-2", Username: "alice"}); !errors.Is(err, storage.ErrDuplicateUser) {
		t.Errorf("duplicate username: got %v", err)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil || byName.ID != "u-1" {
		t.Fatalf("GetUserByUsername: %v, %v", byName, err)
	}

	if err := s.UpdateUserPassword(ctx, "u-1", "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, _ := s.GetUser(ctx, "u-1")
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q", got.PasswordHash)
	}

	if err := s.DeleteUser(ctx, "u-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetUserByUsername(ctx, "alice"); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("username index should be cleaned: %v", err)
	}
}

func TestAdminTOTPSecretEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key, err := security.GenerateEncryptionKey()
	if err != nil {
		t.Fatal(err)
	}
	enc, err := security.NewEncryptor(key)
	if err != nil {
		t.Fatal(err)
	}
	s.SetEncryptor(enc)

	admin := &storage.Admin{ID: "a-1", Email: "root@example.com", PasswordHash: "h", CreatedAt: time.Now()}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAdminTOTPSecret(ctx, "a-1", "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetAdminTOTPSecret: %v", err)
	}

	s.mu.RLock()
	sealed := s.admins["a-1"].TOTPSecret
	s.mu.RUnlock()
	if sealed == "JBSWY3DPEHPK3PXP" {
		t.Error("TOTP secret stored in plaintext despite encryptor")
	}

	got, err := s.GetAdminByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("decrypted secret = %q", got.TOTPSecret)
	}
}

func TestTouchAdminLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	admin := &storage.Admin{ID: "a-1", Email: "root@example.com", CreatedAt: time.Now()}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatal(err)
	}

	at := time.Now().Truncate(time.Second)
	if err := s.TouchAdminLogin(ctx, "a-1", at); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetAdmin(ctx, "a-1")
	if !got.LastLoggedIn.Equal(at) {
		t.Errorf("LastLoggedIn = %v, want %v", got.LastLoggedIn, at)
	}

	if err := s.TouchAdminLogin(ctx, "missing", at); !errors.Is(err, storage.ErrAdminNotFound) {
		t.Errorf("unknown admin: %v", err)
	}
}

func TestRedeemAuthorizationCodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	code := testCode("code-1", "u-1", time.Now().Add(time.Minute))
	if err := s.SaveAuthorizationCode(ctx, code); err != nil {
		t.Fatal(err)
	}

	got, err := s.RedeemAuthorizationCode(ctx, "code-1")
	if err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if got.UserID != "u-1" {
		t.Errorf("UserID = %q", got.UserID)
	}

	if _, err := s.RedeemAuthorizationCode(ctx, "code-1"); !errors.Is(err, storage.ErrCodeNotFound) {
		t.Errorf("second redemption: %v", err)
	}
}

func TestRedeemAuthorizationCodeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveAuthorizationCode(ctx, testCode("code-1", "u-1", time.Now().Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RedeemAuthorizationCode(ctx, "code-1"); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	if got := len(successes); got != 1 {
		t.Errorf("%d concurrent redemptions succeeded, want exactly 1", got)
	}
}

func TestExpiredCodeHandling(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveAuthorizationCode(ctx, testCode("stale", "u-1", time.Now().Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetAuthorizationCode(ctx, "stale"); !errors.Is(err, storage.ErrCodeExpired) {
		t.Errorf("Get expired: %v", err)
	}

	// Redeeming an expired code reports expiry and consumes it
	if _, err := s.RedeemAuthorizationCode(ctx, "stale"); !errors.Is(err, storage.ErrCodeExpired) {
		t.Errorf("Redeem expired: %v", err)
	}
	if _, err := s.RedeemAuthorizationCode(ctx, "stale"); !errors.Is(err, storage.ErrCodeNotFound) {
		t.Errorf("expired code should be gone after redemption attempt: %v", err)
	}
}

func TestTokenUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveToken(ctx, testToken("at-1", "rt-1", "u-1")); err != nil {
		t.Fatal(err)
	}

	if err := s.SaveToken(ctx, testToken("at-1", "rt-2", "u-1")); !errors.Is(err, storage.ErrDuplicateToken) {
		t.Errorf("duplicate access token: %v", err)
	}
	if err := s.SaveToken(ctx, testToken("at-2", "rt-1", "u-1")); !errors.Is(err, storage.ErrDuplicateToken) {
		t.Errorf("duplicate refresh token: %v", err)
	}
}

func TestRedeemRefreshTokenConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveToken(ctx, testToken("at-1", "rt-1", "u-1")); err != nil {
		t.Fatal(err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RedeemRefreshToken(ctx, "rt-1"); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	if got := len(successes); got != 1 {
		t.Errorf("%d concurrent rotations succeeded, want exactly 1", got)
	}

	// Both legs are gone
	if _, err := s.GetTokenByAccess(ctx, "at-1"); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("access leg should be gone: %v", err)
	}
}

func TestDeleteTokenKillsBothLegs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveToken(ctx, testToken("at-1", "rt-1", "u-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTokenByAccess(ctx, "at-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTokenByRefresh(ctx, "rt-1"); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("refresh leg should be gone: %v", err)
	}

	if err := s.SaveToken(ctx, testToken("at-2", "rt-2", "u-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTokenByRefresh(ctx, "rt-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTokenByAccess(ctx, "at-2"); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("access leg should be gone: %v", err)
	}
}

func TestExpiredTokenHandling(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	expired := testToken("at-1", "rt-1", "u-1")
	expired.AccessExpiresAt = time.Now().Add(-time.Minute)
	expired.RefreshExpiresAt = time.Now().Add(-time.Minute)
	if err := s.SaveToken(ctx, expired); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetTokenByAccess(ctx, "at-1"); !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("expired access leg: %v", err)
	}
	if _, err := s.GetTokenByRefresh(ctx, "rt-1"); !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("expired refresh leg: %v", err)
	}
	if _, err := s.RedeemRefreshToken(ctx, "rt-1"); !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("redeeming expired refresh: %v", err)
	}
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		tok := testToken(fmt.Sprintf("at-%d", i), fmt.Sprintf("rt-%d", i), "u-1")
		if err := s.SaveToken(ctx, tok); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveToken(ctx, testToken("at-other", "rt-other", "u-2")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAuthorizationCode(ctx, testCode("c-1", "u-1", time.Now().Add(time.Minute))); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAuthorizationCode(ctx, testCode("c-2", "u-2", time.Now().Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	tokens, err := s.ListTokensByUser(ctx, "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 3 {
		t.Errorf("got %d tokens, want 3", len(tokens))
	}

	codes, err := s.ListAuthorizationCodesByUser(ctx, "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 1 || codes[0].Code != "c-1" {
		t.Errorf("codes = %v", codes)
	}
}

func TestCleanupExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveAuthorizationCode(ctx, testCode("live", "u-1", time.Now().Add(time.Minute))); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAuthorizationCode(ctx, testCode("stale", "u-1", time.Now().Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}

	dead := testToken("at-dead", "rt-dead", "u-1")
	dead.AccessExpiresAt = time.Now().Add(-time.Hour)
	dead.RefreshExpiresAt = time.Now().Add(-time.Hour)
	if err := s.SaveToken(ctx, dead); err != nil {
		t.Fatal(err)
	}
	// Access leg expired but refresh leg alive: must survive the sweep
	half := testToken("at-half", "rt-half", "u-1")
	half.AccessExpiresAt = time.Now().Add(-time.Hour)
	if err := s.SaveToken(ctx, half); err != nil {
		t.Fatal(err)
	}

	s.CleanupExpired()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.codes["live"]; !ok {
		t.Error("live code swept")
	}
	if _, ok := s.codes["stale"]; ok {
		t.Error("stale code survived")
	}
	if _, ok := s.tokens["at-dead"]; ok {
		t.Error("fully expired token survived")
	}
	if _, ok := s.tokens["at-half"]; !ok {
		t.Error("token with live refresh leg swept")
	}
	if _, ok := s.tokensByRefresh["rt-dead"]; ok {
		t.Error("refresh index not cleaned")
	}
}
