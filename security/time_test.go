package security

import (
	"testing"
	"time"
)

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero time never expires", time.Time{}, false},
		{"future expiry", time.Now().Add(time.Hour), false},
		{"long past expiry", time.Now().Add(-time.Hour), true},
		{"just expired, inside grace", time.Now().Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.expiresAt); got != tt.want {
				t.Errorf("IsExpired(%v) = %v, want %v", tt.expiresAt, got, tt.want)
			}
		})
	}
}

func TestIsExpiredWithGracePeriod(t *testing.T) {
	justExpired := time.Now().Add(-time.Second)

	if IsExpiredWithGracePeriod(justExpired, 10*time.Second) {
		t.Error("inside the grace period should not be expired")
	}
	if !IsExpiredWithGracePeriod(justExpired, 0) {
		t.Error("zero grace period should expire immediately")
	}
}
