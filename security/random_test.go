package security

import (
	"strings"
	"testing"
)

func TestGenerateRandomString(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		complexity int
		allowed    string
	}{
		{"lowercase alnum", 20, ComplexityAlnumLower, charsDigits + charsLower},
		{"mixed alnum", 20, ComplexityAlnum, charsDigits + charsLower + charsUpper},
		{"full", 40, ComplexityFull, charsDigits + charsLower + charsUpper + charsSymbols},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateRandomString(tt.length, tt.complexity)
			if err != nil {
				t.Fatalf("GenerateRandomString: %v", err)
			}
			if len(got) != tt.length {
				t.Errorf("length = %d, want %d", len(got), tt.length)
			}
			for _, r := range got {
				if !strings.ContainsRune(tt.allowed, r) {
					t.Errorf("character %q outside charset", r)
				}
			}
		})
	}
}

func TestGenerateRandomStringUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		s, err := GenerateRandomString(20, ComplexityAlnum)
		if err != nil {
			t.Fatal(err)
		}
		if seen[s] {
			t.Fatalf("duplicate string %q", s)
		}
		seen[s] = true
	}
}

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 32 {
		t.Errorf("length = %d", len(a))
	}
	b, err := RandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) == string(b) {
		t.Error("two reads returned identical bytes")
	}
}
