package krypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// MinStateBytes is the smallest entropy accepted for state tokens.
const MinStateBytes = 16

// GenerateSecureToken returns length random bytes encoded as hex.
func GenerateSecureToken(length int) (string, error) {
	if length < MinStateBytes {
		return "", fmt.Errorf("token length %d below minimum %d", length, MinStateBytes)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateURLSafeToken returns length random bytes encoded as unpadded
// base64url, suitable for query parameters.
func GenerateURLSafeToken(length int) (string, error) {
	if length < MinStateBytes {
		return "", fmt.Errorf("token length %d below minimum %d", length, MinStateBytes)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateUUIDToken returns a random (version 4) UUID string.
func GenerateUUIDToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
