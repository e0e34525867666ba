package oauth

import (
	"encoding/base64"
	"testing"
)

func TestNewSecret(t *testing.T) {
	secret, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret() error = %v", err)
	}

	// 32 bytes = 43 unpadded base64url chars
	if len(secret) != 43 {
		t.Errorf("secret length = %d, want 43", len(secret))
	}

	if _, err := base64.RawURLEncoding.DecodeString(secret); err != nil {
		t.Errorf("secret is not valid base64url: %v", err)
	}
}

func TestNewSecret_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		secret, err := NewSecret()
		if err != nil {
			t.Fatalf("NewSecret() error = %v", err)
		}

		if seen[secret] {
			t.Error("Generated duplicate secret")
		}
		seen[secret] = true
	}
}
