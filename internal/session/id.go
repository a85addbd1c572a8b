package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateID generates a cryptographically secure session ID.
// 32 bytes = 256 bits of entropy.
func GenerateID() (string, error) {
	return randomToken("id")
}

// GenerateCSRFToken generates the per-session CSRF secret with the same
// entropy and charset as session ids.
func GenerateCSRFToken() (string, error) {
	return randomToken("csrf token")
}

func randomToken(what string) (string, error) {

	const size = 32 // 256 bits

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate %s: %w", what, err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
