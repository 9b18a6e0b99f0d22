package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Sealer encrypts credential values before they reach the database.
type Sealer interface {
	Seal(value string) (string, error)
	Open(sealed string) (string, error)
}

const (
	hkdfSalt = "drive-nexus"
	hkdfInfo = "connection-credential"
)

// AESGCMSealer seals values with AES-256-GCM.
type AESGCMSealer struct {
	aead cipher.AEAD
}

// NewAESGCMSealer derives a 256-bit key from secret with HKDF-SHA256.
func NewAESGCMSealer(secret string) (*AESGCMSealer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("encryption secret is empty")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(hkdfSalt), []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &AESGCMSealer{aead: aead}, nil
}

// Seal returns base64(nonce || ciphertext). Empty input stays empty so an absent
// refresh token remains distinguishable.
func (s *AESGCMSealer) Seal(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	ciphertext := s.aead.Seal(nil, nonce, []byte(value), nil)
	payload := append(nonce, ciphertext...)
	return base64.RawStdEncoding.EncodeToString(payload), nil
}

// Open decrypts a value produced by Seal.
func (s *AESGCMSealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	payload, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(payload) < nonceSize {
		return "", fmt.Errorf("sealed value is too short")
	}
	plaintext, err := s.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt sealed value: %w", err)
	}
	return string(plaintext), nil
}

// Plaintext stores values unchanged. Development only.
type Plaintext struct{}

func (Plaintext) Seal(value string) (string, error) { return value, nil }
func (Plaintext) Open(sealed string) (string, error) { return sealed, nil }
