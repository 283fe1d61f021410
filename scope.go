package oauth

import (
	"strings"

	"github.com/halcyonlabs/oauth2-core/storage"
)

// allowedScopes derives the scopes a client may be granted. Clients
// trusted with the authorization code flow get write access; everything
// else is read-only.
func allowedScopes(client *storage.Client) []string {
	if client.AllowsGrant(GrantTypeAuthorizationCode) {
		return []string{ScopeRead, ScopeWrite}
	}
	return []string{ScopeRead}
}

// narrowScope narrows a requested scope to what the client is allowed.
// An empty request defaults to read-only. A request with no allowed
// member at all is an error rather than a silent downgrade to nothing.
func narrowScope(client *storage.Client, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{ScopeRead}, nil
	}

	allowed := allowedScopes(client)
	granted := make([]string, 0, len(requested))
	for _, sc := range requested {
		for _, a := range allowed {
			if sc == a {
				granted = append(granted, sc)
				break
			}
		}
	}

	if len(granted) == 0 {
		return nil, ErrInvalidScope("requested scope is not allowed for this client")
	}
	return granted, nil
}

// scopeSatisfies reports whether a token's granted scope covers the
// required scope. A token with no scope at all only satisfies requests
// that require none.
func scopeSatisfies(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	for _, req := range required {
		found := false
		for _, g := range granted {
			if g == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ParseScope splits a space-delimited scope parameter into its tokens
func ParseScope(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

// FormatScope joins scope tokens into the space-delimited wire form
func FormatScope(scope []string) string {
	return strings.Join(scope, " ")
}
