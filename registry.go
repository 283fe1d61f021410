package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

// Generated credential shapes
const (
	clientIDLength     = 20
	clientSecretLength = 40

	minTokenLifetime = 60 // seconds
)

// ClientRegistration describes a client to be registered. Zero-valued
// optional fields get defaults: all three grant types, read and write
// scopes, and the engine's standard token lifetimes.
type ClientRegistration struct {
	Name                 string
	RedirectURIs         []string
	GrantTypes           []string
	Scopes               []string
	AccessTokenLifetime  int64
	RefreshTokenLifetime int64
}

// ClientCredentials is the result of client registration. ClientSecret is
// the plaintext secret, returned exactly once; only its hash is stored.
type ClientCredentials struct {
	Client       *storage.Client
	ClientSecret string
}

// RegisterClient registers a new OAuth client and generates its
// credentials
func (s *Server) RegisterClient(ctx context.Context, reg ClientRegistration) (*ClientCredentials, error) {
	if reg.Name == "" {
		return nil, ErrInvalidRequest("client name is required")
	}
	if len(reg.RedirectURIs) == 0 {
		return nil, ErrInvalidRequest("at least one redirect URI is required")
	}
	if err := validateLifetimes(reg.AccessTokenLifetime, reg.RefreshTokenLifetime); err != nil {
		return nil, err
	}

	grantTypes := reg.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{GrantTypePassword, GrantTypeAuthorizationCode, GrantTypeRefreshToken}
	}
	for _, g := range grantTypes {
		switch g {
		case GrantTypePassword, GrantTypeAuthorizationCode, GrantTypeRefreshToken:
		default:
			return nil, ErrInvalidRequest("unsupported grant type " + g)
		}
	}

	scopes := reg.Scopes
	if len(scopes) == 0 {
		scopes = []string{ScopeRead, ScopeWrite}
	}

	accessLifetime := reg.AccessTokenLifetime
	if accessLifetime == 0 {
		accessLifetime = int64(s.config.AccessTokenTTL.Seconds())
	}
	refreshLifetime := reg.RefreshTokenLifetime
	if refreshLifetime == 0 {
		refreshLifetime = int64(s.config.RefreshTokenTTL.Seconds())
	}

	secret, err := security.GenerateRandomString(clientSecretLength, security.ComplexityFull)
	if err != nil {
		return nil, s.storageFailure("generate client secret", err)
	}
	secretHash, err := security.HashPassword(secret)
	if err != nil {
		return nil, s.storageFailure("hash client secret", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		clientID, err := security.GenerateRandomString(clientIDLength, security.ComplexityAlnum)
		if err != nil {
			return nil, s.storageFailure("generate client ID", err)
		}

		client := &storage.Client{
			ID:                   uuid.NewString(),
			ClientID:             clientID,
			SecretHash:           secretHash,
			Name:                 reg.Name,
			RedirectURIs:         append([]string(nil), reg.RedirectURIs...),
			GrantTypes:           grantTypes,
			Scopes:               scopes,
			AccessTokenLifetime:  accessLifetime,
			RefreshTokenLifetime: refreshLifetime,
			CreatedAt:            time.Now(),
		}

		err = s.stores.Clients.CreateClient(ctx, client)
		if err == nil {
			s.logger.Info("Client registered", "client_id", clientID, "name", reg.Name)
			return &ClientCredentials{Client: MaskClient(client), ClientSecret: secret}, nil
		}
		if !errors.Is(err, storage.ErrDuplicateClient) {
			return nil, s.storageFailure("create client", err)
		}
		lastErr = err
	}

	return nil, s.storageFailure("create client", lastErr)
}

// UpdateClient updates a registered client's mutable fields. The client
// ID and secret are immutable; use RegisterClient for a fresh credential.
func (s *Server) UpdateClient(ctx context.Context, id string, reg ClientRegistration) (*storage.Client, error) {
	client, err := s.stores.Clients.GetClientByInternalID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrClientNotFound) {
			return nil, ErrInvalidRequest("unknown client")
		}
		return nil, s.storageFailure("get client", err)
	}

	if err := validateLifetimes(reg.AccessTokenLifetime, reg.RefreshTokenLifetime); err != nil {
		return nil, err
	}

	if reg.Name != "" {
		client.Name = reg.Name
	}
	if len(reg.RedirectURIs) > 0 {
		client.RedirectURIs = append([]string(nil), reg.RedirectURIs...)
	}
	if len(reg.GrantTypes) > 0 {
		client.GrantTypes = append([]string(nil), reg.GrantTypes...)
	}
	if len(reg.Scopes) > 0 {
		client.Scopes = append([]string(nil), reg.Scopes...)
	}
	if reg.AccessTokenLifetime > 0 {
		client.AccessTokenLifetime = reg.AccessTokenLifetime
	}
	if reg.RefreshTokenLifetime > 0 {
		client.RefreshTokenLifetime = reg.RefreshTokenLifetime
	}

	if err := s.stores.Clients.UpdateClient(ctx, client); err != nil {
		return nil, s.storageFailure("update client", err)
	}
	return MaskClient(client), nil
}

// DeleteClient removes a registered client by internal ID
func (s *Server) DeleteClient(ctx context.Context, id string) error {
	if err := s.stores.Clients.DeleteClient(ctx, id); err != nil {
		if errors.Is(err, storage.ErrClientNotFound) {
			return ErrInvalidRequest("unknown client")
		}
		return s.storageFailure("delete client", err)
	}
	return nil
}

// ListClients lists all registered clients with secrets masked
func (s *Server) ListClients(ctx context.Context) ([]*storage.Client, error) {
	clients, err := s.stores.Clients.ListClients(ctx)
	if err != nil {
		return nil, s.storageFailure("list clients", err)
	}
	for i, c := range clients {
		clients[i] = MaskClient(c)
	}
	return clients, nil
}

// RegisterUser creates an end-user account
func (s *Server) RegisterUser(ctx context.Context, username, password string) (*storage.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidRequest("username and password are required")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, s.storageFailure("hash password", err)
	}

	user := &storage.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.stores.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateUser) {
			return nil, ErrInvalidRequest("username is already taken")
		}
		return nil, s.storageFailure("create user", err)
	}

	return MaskUser(user), nil
}

// DeleteUser removes an end-user account by internal ID
func (s *Server) DeleteUser(ctx context.Context, id string) error {
	if err := s.stores.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrInvalidRequest("unknown user")
		}
		return s.storageFailure("delete user", err)
	}
	return nil
}

// ListUsers lists all end-user accounts with password hashes masked
func (s *Server) ListUsers(ctx context.Context) ([]*storage.User, error) {
	users, err := s.stores.Users.ListUsers(ctx)
	if err != nil {
		return nil, s.storageFailure("list users", err)
	}
	for i, u := range users {
		users[i] = MaskUser(u)
	}
	return users, nil
}

func validateLifetimes(access, refresh int64) error {
	if access != 0 && access < minTokenLifetime {
		return ErrInvalidRequest("access token lifetime must be at least 60 seconds")
	}
	if refresh != 0 && refresh < minTokenLifetime {
		return ErrInvalidRequest("refresh token lifetime must be at least 60 seconds")
	}
	return nil
}
