package security

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultTOTPSkew is the number of time steps accepted before and
	// after the current step. With the standard 30-second period this
	// tolerates roughly ±1 minute of clock drift between the server and
	// the authenticator app.
	DefaultTOTPSkew = 2

	// totpPeriod is the standard TOTP time step in seconds
	totpPeriod = 30
)

// TOTPEnrollment is the result of generating a new shared secret: the
// base32 secret itself and an otpauth:// provisioning URI suitable for
// enrollment in an authenticator app.
type TOTPEnrollment struct {
	Secret          string
	ProvisioningURI string
}

// GenerateTOTPSecret generates a new TOTP shared secret bound to the given
// issuer and account name
func GenerateTOTPSecret(issuer, accountName string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      totpPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return &TOTPEnrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

// ValidateTOTP reports whether code is valid for the shared secret at the
// current time, accepting up to skew time steps of drift in either
// direction. A skew of 0 uses DefaultTOTPSkew.
func ValidateTOTP(code, secret string, skew uint) bool {
	if skew == 0 {
		skew = DefaultTOTPSkew
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateTOTPCode computes the current code for a shared secret. Intended
// for tests and enrollment verification flows.
func GenerateTOTPCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCode(secret, at)
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP code: %w", err)
	}
	return code, nil
}
