package security

import "time"

const (
	// DefaultClockSkewGracePeriod is the default grace period for expiry
	// checks. It prevents false expiration errors caused by small time
	// differences between the issuing and checking hosts; 5 seconds covers
	// typical NTP drift while extending credential lifetime negligibly.
	DefaultClockSkewGracePeriod = 5 * time.Second
)

// IsExpired checks whether a credential is past its expiry with the
// default clock-skew grace period. A zero expiry never expires.
func IsExpired(expiresAt time.Time) bool {
	return IsExpiredWithGracePeriod(expiresAt, DefaultClockSkewGracePeriod)
}

// IsExpiredWithGracePeriod checks expiry with a custom grace period
func IsExpiredWithGracePeriod(expiresAt time.Time, gracePeriod time.Duration) bool {
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().After(expiresAt.Add(gracePeriod))
}
