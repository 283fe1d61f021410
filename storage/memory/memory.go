package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/halcyonlabs/oauth2-core/instrumentation"
	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

// Compile-time interface checks
var (
	_ storage.ClientStore = (*Store)(nil)
	_ storage.UserStore   = (*Store)(nil)
	_ storage.AdminStore  = (*Store)(nil)
	_ storage.CodeStore   = (*Store)(nil)
	_ storage.TokenStore  = (*Store)(nil)
)

// Store is an in-memory implementation of all storage interfaces.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	clients         map[string]*storage.Client // keyed by public client ID
	clientsByID     map[string]string          // internal ID -> public client ID
	users           map[string]*storage.User   // keyed by internal ID
	usersByName     map[string]string          // username -> internal ID
	admins          map[string]*storage.Admin  // keyed by internal ID
	adminsByEmail   map[string]string          // email -> internal ID
	codes           map[string]*storage.AuthorizationCode
	tokens          map[string]*storage.Token // keyed by access token
	tokensByRefresh map[string]string         // refresh token -> access token

	logger    *slog.Logger
	encryptor *security.Encryptor
	inst      *instrumentation.Instrumentation
	tracer    trace.Tracer

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// New creates an in-memory store with a 5-minute expiry sweep
func New() *Store {
	return NewWithConfig(5 * time.Minute)
}

// NewWithConfig creates an in-memory store with a custom cleanup interval.
// An interval of 0 disables the background sweep; expiry is still enforced
// lazily on every read.
func NewWithConfig(cleanupInterval time.Duration) *Store {
	s := &Store{
		clients:         make(map[string]*storage.Client),
		clientsByID:     make(map[string]string),
		users:           make(map[string]*storage.User),
		usersByName:     make(map[string]string),
		admins:          make(map[string]*storage.Admin),
		adminsByEmail:   make(map[string]string),
		codes:           make(map[string]*storage.AuthorizationCode),
		tokens:          make(map[string]*storage.Token),
		tokensByRefresh: make(map[string]string),
		logger:          slog.Default(),
		tracer:          tracenoop.NewTracerProvider().Tracer("memory"),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// SetLogger sets the logger for the store
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetEncryptor sets an encryptor used to protect admin TOTP secrets at
// rest. Must be called before any admin records are written.
func (s *Store) SetEncryptor(enc *security.Encryptor) {
	s.encryptor = enc
}

// SetInstrumentation wires the store's tracer, metrics, and size gauges
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) error {
	if inst == nil {
		return nil
	}
	s.inst = inst
	s.tracer = inst.Tracer("storage/memory")

	return inst.RegisterStorageSizeCallbacks(
		func() int64 {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return int64(len(s.tokens))
		},
		func() int64 {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return int64(len(s.clients))
		},
		func() int64 {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return int64(len(s.codes))
		},
	)
}

// Stop gracefully stops the background cleanup goroutine
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

// startStorageSpan begins a trace span for a storage operation
func (s *Store) startStorageSpan(ctx context.Context, operation string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(attribute.String(instrumentation.AttrOperation, operation)))
	return ctx, span, time.Now()
}

// recordStorageOperation finishes a span and records operation metrics
func (s *Store) recordStorageOperation(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
		instrumentation.RecordError(span, err)
	} else {
		instrumentation.RecordSuccess(span)
	}
	span.SetAttributes(attribute.String(instrumentation.AttrResult, result))
	span.End()

	if s.inst != nil {
		s.inst.Metrics().RecordStorageOperation(ctx, operation, result,
			float64(time.Since(start).Microseconds())/1000.0)
	}
}

// --- ClientStore ---

// CreateClient persists a new client
func (s *Store) CreateClient(ctx context.Context, client *storage.Client) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "create_client")
	defer func() { s.recordStorageOperation(ctx, span, "create_client", start, err) }()

	if client == nil || client.ClientID == "" || client.ID == "" {
		return fmt.Errorf("client, client ID, and internal ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ClientID]; exists {
		return fmt.Errorf("client %q: %w", client.ClientID, storage.ErrDuplicateClient)
	}
	if _, exists := s.clientsByID[client.ID]; exists {
		return fmt.Errorf("client record %q: %w", client.ID, storage.ErrDuplicateClient)
	}

	s.clients[client.ClientID] = client.Clone()
	s.clientsByID[client.ID] = client.ClientID

	s.logger.Debug("Client created", "client_id", client.ClientID, "name", client.Name)
	return nil
}

// GetClient retrieves a client by public client ID
func (s *Store) GetClient(ctx context.Context, clientID string) (client *storage.Client, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_client")
	defer func() { s.recordStorageOperation(ctx, span, "get_client", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.clients[clientID]
	if !exists {
		return nil, storage.ErrClientNotFound
	}
	return stored.Clone(), nil
}

// GetClientByInternalID retrieves a client by internal record ID
func (s *Store) GetClientByInternalID(ctx context.Context, id string) (client *storage.Client, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_client_by_internal_id")
	defer func() { s.recordStorageOperation(ctx, span, "get_client_by_internal_id", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	clientID, exists := s.clientsByID[id]
	if !exists {
		return nil, storage.ErrClientNotFound
	}
	return s.clients[clientID].Clone(), nil
}

// UpdateClient replaces a stored client record, matched by internal ID
func (s *Store) UpdateClient(ctx context.Context, client *storage.Client) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "update_client")
	defer func() { s.recordStorageOperation(ctx, span, "update_client", start, err) }()

	if client == nil || client.ID == "" {
		return fmt.Errorf("client and internal ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldClientID, exists := s.clientsByID[client.ID]
	if !exists {
		return storage.ErrClientNotFound
	}

	// The public client ID is immutable once issued
	if client.ClientID != oldClientID {
		return fmt.Errorf("client ID is immutable")
	}

	s.clients[client.ClientID] = client.Clone()
	return nil
}

// DeleteClient removes a client by internal ID
func (s *Store) DeleteClient(ctx context.Context, id string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "delete_client")
	defer func() { s.recordStorageOperation(ctx, span, "delete_client", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	clientID, exists := s.clientsByID[id]
	if !exists {
		return storage.ErrClientNotFound
	}

	delete(s.clients, clientID)
	delete(s.clientsByID, id)

	s.logger.Debug("Client deleted", "client_id", clientID)
	return nil
}

// ValidateClientSecret validates a client secret in constant cost.
// A missing client and a wrong secret are indistinguishable: both paths
// run one bcrypt comparison and return the same error.
func (s *Store) ValidateClientSecret(ctx context.Context, clientID, clientSecret string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "validate_client_secret")
	defer func() { s.recordStorageOperation(ctx, span, "validate_client_secret", start, err) }()

	s.mu.RLock()
	stored, exists := s.clients[clientID]
	var secretHash string
	if exists {
		secretHash = stored.SecretHash
	}
	s.mu.RUnlock()

	if !security.VerifyPassword(secretHash, clientSecret) {
		return storage.ErrClientNotFound
	}
	return nil
}

// ListClients lists all registered clients
func (s *Store) ListClients(ctx context.Context) (clients []*storage.Client, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "list_clients")
	defer func() { s.recordStorageOperation(ctx, span, "list_clients", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	clients = make([]*storage.Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c.Clone())
	}
	return clients, nil
}

// --- UserStore ---

// CreateUser persists a new user
func (s *Store) CreateUser(ctx context.Context, user *storage.User) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "create_user")
	defer func() { s.recordStorageOperation(ctx, span, "create_user", start, err) }()

	if user == nil || user.ID == "" || user.Username == "" {
		return fmt.Errorf("user, ID, and username are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[user.Username]; exists {
		return fmt.Errorf("username %q: %w", user.Username, storage.ErrDuplicateUser)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user record %q: %w", user.ID, storage.ErrDuplicateUser)
	}

	u := *user
	s.users[user.ID] = &u
	s.usersByName[user.Username] = user.ID
	return nil
}

// GetUser retrieves a user by internal ID
func (s *Store) GetUser(ctx context.Context, id string) (user *storage.User, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_user")
	defer func() { s.recordStorageOperation(ctx, span, "get_user", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.users[id]
	if !exists {
		return nil, storage.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

// GetUserByUsername retrieves a user by unique username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user *storage.User, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_user_by_username")
	defer func() { s.recordStorageOperation(ctx, span, "get_user_by_username", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.usersByName[username]
	if !exists {
		return nil, storage.ErrUserNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// UpdateUserPassword replaces a user's stored password hash
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "update_user_password")
	defer func() { s.recordStorageOperation(ctx, span, "update_user_password", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.users[id]
	if !exists {
		return storage.ErrUserNotFound
	}
	stored.PasswordHash = passwordHash
	return nil
}

// DeleteUser removes a user by internal ID
func (s *Store) DeleteUser(ctx context.Context, id string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "delete_user")
	defer func() { s.recordStorageOperation(ctx, span, "delete_user", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.users[id]
	if !exists {
		return storage.ErrUserNotFound
	}
	delete(s.usersByName, stored.Username)
	delete(s.users, id)
	return nil
}

// ListUsers lists all users
func (s *Store) ListUsers(ctx context.Context) (users []*storage.User, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "list_users")
	defer func() { s.recordStorageOperation(ctx, span, "list_users", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	users = make([]*storage.User, 0, len(s.users))
	for _, stored := range s.users {
		u := *stored
		users = append(users, &u)
	}
	return users, nil
}

// --- AdminStore ---

// CreateAdmin persists a new admin account
func (s *Store) CreateAdmin(ctx context.Context, admin *storage.Admin) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "create_admin")
	defer func() { s.recordStorageOperation(ctx, span, "create_admin", start, err) }()

	if admin == nil || admin.ID == "" || admin.Email == "" {
		return fmt.Errorf("admin, ID, and email are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.adminsByEmail[admin.Email]; exists {
		return fmt.Errorf("admin %q: %w", admin.Email, storage.ErrDuplicateAdmin)
	}
	if _, exists := s.admins[admin.ID]; exists {
		return fmt.Errorf("admin record %q: %w", admin.ID, storage.ErrDuplicateAdmin)
	}

	a := *admin
	if a.TOTPSecret != "" {
		a.TOTPSecret, err = s.sealTOTPSecret(a.TOTPSecret)
		if err != nil {
			return err
		}
	}
	s.admins[admin.ID] = &a
	s.adminsByEmail[admin.Email] = admin.ID
	return nil
}

// GetAdmin retrieves an admin by internal ID
func (s *Store) GetAdmin(ctx context.Context, id string) (admin *storage.Admin, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_admin")
	defer func() { s.recordStorageOperation(ctx, span, "get_admin", start, err) }()

	s.mu.RLock()
	stored, exists := s.admins[id]
	var a storage.Admin
	if exists {
		a = *stored
	}
	s.mu.RUnlock()

	if !exists {
		return nil, storage.ErrAdminNotFound
	}
	if a.TOTPSecret != "" {
		a.TOTPSecret, err = s.openTOTPSecret(a.TOTPSecret)
		if err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// GetAdminByEmail retrieves an admin by unique email
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (admin *storage.Admin, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_admin_by_email")
	defer func() { s.recordStorageOperation(ctx, span, "get_admin_by_email", start, err) }()

	s.mu.RLock()
	id, exists := s.adminsByEmail[email]
	var a storage.Admin
	if exists {
		a = *s.admins[id]
	}
	s.mu.RUnlock()

	if !exists {
		return nil, storage.ErrAdminNotFound
	}
	if a.TOTPSecret != "" {
		a.TOTPSecret, err = s.openTOTPSecret(a.TOTPSecret)
		if err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// SetAdminTOTPSecret stores the TOTP shared secret, overwriting any
// previous secret
func (s *Store) SetAdminTOTPSecret(ctx context.Context, id, secret string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "set_admin_totp_secret")
	defer func() { s.recordStorageOperation(ctx, span, "set_admin_totp_secret", start, err) }()

	sealed := secret
	if secret != "" {
		sealed, err = s.sealTOTPSecret(secret)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.admins[id]
	if !exists {
		return storage.ErrAdminNotFound
	}
	stored.TOTPSecret = sealed
	return nil
}

// TouchAdminLogin records the admin's last successful login time
func (s *Store) TouchAdminLogin(ctx context.Context, id string, at time.Time) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "touch_admin_login")
	defer func() { s.recordStorageOperation(ctx, span, "touch_admin_login", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.admins[id]
	if !exists {
		return storage.ErrAdminNotFound
	}
	stored.LastLoggedIn = at
	return nil
}

func (s *Store) sealTOTPSecret(secret string) (string, error) {
	if !s.encryptor.IsEnabled() {
		return secret, nil
	}
	sealed, err := s.encryptor.Encrypt(secret)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}
	return sealed, nil
}

func (s *Store) openTOTPSecret(sealed string) (string, error) {
	if !s.encryptor.IsEnabled() {
		return sealed, nil
	}
	secret, err := s.encryptor.Decrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}
	return secret, nil
}

// --- CodeStore ---

// SaveAuthorizationCode persists an issued code
func (s *Store) SaveAuthorizationCode(ctx context.Context, code *storage.AuthorizationCode) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "save_authorization_code")
	defer func() { s.recordStorageOperation(ctx, span, "save_authorization_code", start, err) }()

	if code == nil || code.Code == "" {
		return fmt.Errorf("code is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code.Code]; exists {
		return storage.ErrDuplicateCode
	}
	s.codes[code.Code] = code.Clone()
	return nil
}

// GetAuthorizationCode retrieves a code without consuming it
func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (stored *storage.AuthorizationCode, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_authorization_code")
	defer func() { s.recordStorageOperation(ctx, span, "get_authorization_code", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, exists := s.codes[code]
	if !exists {
		return nil, storage.ErrCodeNotFound
	}
	if security.IsExpired(existing.ExpiresAt) {
		return nil, storage.ErrCodeExpired
	}
	return existing.Clone(), nil
}

// RedeemAuthorizationCode atomically retrieves and deletes a code.
// Under concurrent redemption only one caller wins; the rest observe
// ErrCodeNotFound.
func (s *Store) RedeemAuthorizationCode(ctx context.Context, code string) (redeemed *storage.AuthorizationCode, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "redeem_authorization_code")
	defer func() { s.recordStorageOperation(ctx, span, "redeem_authorization_code", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.codes[code]
	if !exists {
		return nil, storage.ErrCodeNotFound
	}
	delete(s.codes, code)

	if security.IsExpired(existing.ExpiresAt) {
		return nil, storage.ErrCodeExpired
	}
	return existing.Clone(), nil
}

// DeleteAuthorizationCode removes a code
func (s *Store) DeleteAuthorizationCode(ctx context.Context, code string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "delete_authorization_code")
	defer func() { s.recordStorageOperation(ctx, span, "delete_authorization_code", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code]; !exists {
		return storage.ErrCodeNotFound
	}
	delete(s.codes, code)
	return nil
}

// ListAuthorizationCodesByUser lists the active codes issued for a user
func (s *Store) ListAuthorizationCodesByUser(ctx context.Context, userID string) (codes []*storage.AuthorizationCode, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "list_authorization_codes_by_user")
	defer func() { s.recordStorageOperation(ctx, span, "list_authorization_codes_by_user", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.codes {
		if c.UserID == userID && !security.IsExpired(c.ExpiresAt) {
			codes = append(codes, c.Clone())
		}
	}
	return codes, nil
}

// --- TokenStore ---

// SaveToken persists a token record
func (s *Store) SaveToken(ctx context.Context, token *storage.Token) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "save_token")
	defer func() { s.recordStorageOperation(ctx, span, "save_token", start, err) }()

	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.AccessToken]; exists {
		return storage.ErrDuplicateToken
	}
	if token.RefreshToken != "" {
		if _, exists := s.tokensByRefresh[token.RefreshToken]; exists {
			return storage.ErrDuplicateToken
		}
	}

	s.tokens[token.AccessToken] = token.Clone()
	if token.RefreshToken != "" {
		s.tokensByRefresh[token.RefreshToken] = token.AccessToken
	}
	return nil
}

// GetTokenByAccess retrieves a record by its access-token string
func (s *Store) GetTokenByAccess(ctx context.Context, accessToken string) (token *storage.Token, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_token_by_access")
	defer func() { s.recordStorageOperation(ctx, span, "get_token_by_access", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.tokens[accessToken]
	if !exists {
		return nil, storage.ErrTokenNotFound
	}
	if security.IsExpired(stored.AccessExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return stored.Clone(), nil
}

// GetTokenByRefresh retrieves a record by its refresh-token string
func (s *Store) GetTokenByRefresh(ctx context.Context, refreshToken string) (token *storage.Token, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "get_token_by_refresh")
	defer func() { s.recordStorageOperation(ctx, span, "get_token_by_refresh", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	accessToken, exists := s.tokensByRefresh[refreshToken]
	if !exists {
		return nil, storage.ErrTokenNotFound
	}
	stored := s.tokens[accessToken]
	if security.IsExpired(stored.RefreshExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return stored.Clone(), nil
}

// RedeemRefreshToken atomically retrieves and deletes a record by its
// refresh-token string. This is the rotation point: one winner, the rest
// observe ErrTokenNotFound.
func (s *Store) RedeemRefreshToken(ctx context.Context, refreshToken string) (token *storage.Token, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "redeem_refresh_token")
	defer func() { s.recordStorageOperation(ctx, span, "redeem_refresh_token", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	accessToken, exists := s.tokensByRefresh[refreshToken]
	if !exists {
		return nil, storage.ErrTokenNotFound
	}
	stored := s.tokens[accessToken]
	delete(s.tokens, accessToken)
	delete(s.tokensByRefresh, refreshToken)

	if security.IsExpired(stored.RefreshExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return stored.Clone(), nil
}

// DeleteTokenByRefresh removes a record by its refresh-token string
func (s *Store) DeleteTokenByRefresh(ctx context.Context, refreshToken string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "delete_token_by_refresh")
	defer func() { s.recordStorageOperation(ctx, span, "delete_token_by_refresh", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	accessToken, exists := s.tokensByRefresh[refreshToken]
	if !exists {
		return storage.ErrTokenNotFound
	}
	delete(s.tokens, accessToken)
	delete(s.tokensByRefresh, refreshToken)
	return nil
}

// DeleteTokenByAccess removes a record by its access-token string
func (s *Store) DeleteTokenByAccess(ctx context.Context, accessToken string) (err error) {
	ctx, span, start := s.startStorageSpan(ctx, "delete_token_by_access")
	defer func() { s.recordStorageOperation(ctx, span, "delete_token_by_access", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.tokens[accessToken]
	if !exists {
		return storage.ErrTokenNotFound
	}
	delete(s.tokens, accessToken)
	if stored.RefreshToken != "" {
		delete(s.tokensByRefresh, stored.RefreshToken)
	}
	return nil
}

// ListTokensByUser lists the active token records for a user
func (s *Store) ListTokensByUser(ctx context.Context, userID string) (tokens []*storage.Token, err error) {
	ctx, span, start := s.startStorageSpan(ctx, "list_tokens_by_user")
	defer func() { s.recordStorageOperation(ctx, span, "list_tokens_by_user", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tokens {
		if t.UserID != userID {
			continue
		}
		// A record whose access leg expired but whose refresh leg is
		// still live remains an active session.
		if security.IsExpired(t.AccessExpiresAt) &&
			(t.RefreshToken == "" || security.IsExpired(t.RefreshExpiresAt)) {
			continue
		}
		tokens = append(tokens, t.Clone())
	}
	return tokens, nil
}

// --- Expiry sweep ---

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

// CleanupExpired removes expired codes and fully expired token records.
// Expiry is enforced lazily on every read; the sweep only reclaims memory.
func (s *Store) CleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removedCodes := 0
	for code, c := range s.codes {
		if security.IsExpired(c.ExpiresAt) {
			delete(s.codes, code)
			removedCodes++
		}
	}

	removedTokens := 0
	for accessToken, t := range s.tokens {
		accessDead := security.IsExpired(t.AccessExpiresAt)
		refreshDead := t.RefreshToken == "" || security.IsExpired(t.RefreshExpiresAt)
		if accessDead && refreshDead {
			delete(s.tokens, accessToken)
			if t.RefreshToken != "" {
				delete(s.tokensByRefresh, t.RefreshToken)
			}
			removedTokens++
		}
	}

	if removedCodes > 0 || removedTokens > 0 {
		s.logger.Debug("Expired records cleaned up",
			"codes", removedCodes,
			"tokens", removedTokens)
	}
}
