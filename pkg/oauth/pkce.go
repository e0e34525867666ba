package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const (
	// pkceVerifierBytes is the number of random bytes for the PKCE code verifier.
	// 32 bytes provides 256 bits of entropy.
	pkceVerifierBytes = 32

	// stateBytes is the number of random bytes for the OAuth state parameter.
	// 32 bytes encodes to 43 base64url characters.
	stateBytes = 32

	// verifierMinLen and verifierMaxLen bound the code verifier length per RFC 7636.
	verifierMinLen = 43
	verifierMaxLen = 128
)

// ChallengeMethodS256 is the only code challenge method the server accepts.
// The plain method defeats the purpose of PKCE and is rejected.
const ChallengeMethodS256 = "S256"

// GeneratePKCE generates a new PKCE code verifier and challenge.
// The code verifier is 32 random bytes (256 bits), base64url-encoded.
// The code challenge is the S256 (SHA256) hash of the verifier.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifier, challenge, err := GeneratePKCERaw()
	if err != nil {
		return nil, err
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: ChallengeMethodS256,
	}, nil
}

// GeneratePKCERaw generates a PKCE code verifier and challenge as raw strings.
func GeneratePKCERaw() (verifier, challenge string, err error) {
	verifierBytes := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(verifierBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes for PKCE: %w", err)
	}

	verifier = base64.RawURLEncoding.EncodeToString(verifierBytes)
	return verifier, ChallengeS256(verifier), nil
}

// ChallengeS256 computes the S256 code challenge for a verifier:
// BASE64URL(SHA256(verifier)), no padding.
func ChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// VerifyS256 reports whether the verifier proves the stored challenge.
// The comparison is constant-time so redemption attempts cannot probe the
// challenge byte by byte.
func VerifyS256(verifier, challenge string) bool {
	computed := ChallengeS256(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// ValidateVerifier checks the code verifier format rules from RFC 7636:
// 43 to 128 characters from the unreserved set [A-Za-z0-9-._~].
func ValidateVerifier(verifier string) error {
	if len(verifier) < verifierMinLen || len(verifier) > verifierMaxLen {
		return fmt.Errorf("code verifier length %d outside [%d, %d]", len(verifier), verifierMinLen, verifierMaxLen)
	}
	for _, c := range verifier {
		if !isUnreserved(c) {
			return fmt.Errorf("code verifier contains invalid character %q", c)
		}
	}
	return nil
}

func isUnreserved(c rune) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// GenerateState generates a random state parameter for OAuth.
// The state is opaque to the server; it exists so the client can correlate
// the authorization response with its own request.
func GenerateState() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
