// Package util provides small shared helpers.
package util

// SafeTruncate truncates a string to maxLen characters without panicking.
// Used to log prefixes of codes and token identifiers: enough uniqueness
// for debugging without putting the credential itself in the log stream.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
