package netsuite

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewStateToken generates a single-use anti-CSRF state token for one
// authorization attempt. 16 bytes of entropy, hex encoded.
func NewStateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
