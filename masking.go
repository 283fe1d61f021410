package oauth

import "github.com/halcyonlabs/oauth2-core/storage"

// MaskClient returns a copy of the client safe to cross the trust
// boundary: the secret hash is stripped. The input is never mutated.
func MaskClient(c *storage.Client) *storage.Client {
	if c == nil {
		return nil
	}
	masked := c.Clone()
	masked.SecretHash = ""
	return masked
}

// MaskUser returns a copy of the user with the password hash stripped
func MaskUser(u *storage.User) *storage.User {
	if u == nil {
		return nil
	}
	masked := *u
	masked.PasswordHash = ""
	return &masked
}

// MaskAdmin returns a copy of the admin with the password hash and TOTP
// secret stripped
func MaskAdmin(a *storage.Admin) *storage.Admin {
	if a == nil {
		return nil
	}
	masked := *a
	masked.PasswordHash = ""
	masked.TOTPSecret = ""
	return &masked
}
