package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of an access token; the hex form is twice as long.
const TokenBytes = 32

// NewAccessToken returns a hex-encoded random token from the system CSPRNG.
func NewAccessToken() (string, error) {
	return randomHex(TokenBytes)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
