package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrCiphertextTooShort is returned when sealed data is shorter than a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts and authenticates small payloads such as cached tokens.
type Sealer interface {
	// Seal returns nonce||ciphertext.
	Seal(plaintext []byte) ([]byte, error)
	// Open reverses Seal.
	Open(sealed []byte) ([]byte, error)
}

type aesGCMSealer struct {
	gcm cipher.AEAD
}

// NewAESGCMSealer creates a Sealer from a raw 16, 24 or 32 byte key.
func NewAESGCMSealer(key []byte) (Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aesGCMSealer{gcm: gcm}, nil
}

// NewAESGCMSealerFromString accepts a base64 encoded key (as produced by
// GenerateAESKey) or a raw key string of valid AES length.
func NewAESGCMSealerFromString(key string) (Sealer, error) {
	if raw, err := base64.StdEncoding.DecodeString(key); err == nil && validKeySize(len(raw)) {
		return NewAESGCMSealer(raw)
	}
	return NewAESGCMSealer([]byte(key))
}

func (s *aesGCMSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *aesGCMSealer) Open(sealed []byte) ([]byte, error) {
	n := s.gcm.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := s.gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// GenerateAESKey returns a random key of keySize bytes, base64 encoded.
func GenerateAESKey(keySize int) (string, error) {
	if !validKeySize(keySize) {
		return "", fmt.Errorf("invalid key size: must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256")
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func validKeySize(n int) bool {
	return n == 16 || n == 24 || n == 32
}
