package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// secretBytes is the number of random bytes backing every server-minted
// credential (authorization codes, access tokens, client secrets, request
// ids). 32 bytes gives 256 bits of entropy; the encoded value doubles as
// the lookup key, so it must be unguessable.
const secretBytes = 32

// NewSecret returns a fresh opaque credential: 32 bytes from crypto/rand,
// base64url-encoded without padding.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
