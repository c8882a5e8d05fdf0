package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"golang.org/x/crypto/argon2"
)

var keySalt = []byte("chefculina-settings-v1")

// ErrCiphertext is returned when stored data cannot be decrypted.
var ErrCiphertext = errors.New("ciphertext is invalid or was encrypted with another key")

// EncryptionService encrypts provider API keys with AES-256-GCM under a key
// derived from the configured passphrase with Argon2id.
type EncryptionService struct {
	aead cipher.AEAD
}

var _ outbound.SecretCipher = (*EncryptionService)(nil)

// NewEncryptionService derives the data key from passphrase.
func NewEncryptionService(passphrase string) (*EncryptionService, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase cannot be empty")
	}

	key := argon2.IDKey([]byte(passphrase), keySalt, 1, 64*1024, 4, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &EncryptionService{aead: gcm}, nil
}

// EncryptString returns base64(nonce || ciphertext). Empty input stays
// empty so absent keys need no special casing in storage.
func (e *EncryptionService) EncryptString(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func (e *EncryptionService) DecryptString(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertext
	}

	size := e.aead.NonceSize()
	if len(raw) < size {
		return "", ErrCiphertext
	}

	plain, err := e.aead.Open(nil, raw[:size], raw[size:], nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plain), nil
}

// GenerateSecureToken returns a random URL-safe string built from length
// random bytes.
func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
