package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the AES-256 key length in bytes
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes
	NonceSize = 12
	// TagSize is the GCM authentication tag length in bytes
	TagSize = 16
)

var (
	// ErrInvalidKey indicates the encryption key is missing or the wrong size
	ErrInvalidKey = errors.New("encryption key must be 32 bytes")

	// ErrDecryptionFailed indicates tampered ciphertext, a wrong key, a
	// corrupted nonce, or malformed input. Decryption fails closed: it never
	// returns incorrect plaintext.
	ErrDecryptionFailed = errors.New("failed to decrypt credential")
)

// SecretCipher performs AES-256-GCM envelope encryption of credential
// secrets. The key is injected at construction and read-only afterwards;
// the cipher itself holds no other state and is safe for concurrent use.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher creates a cipher from a 32-byte key
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &SecretCipher{aead: aead}, nil
}

// NewSecretCipherFromHex creates a cipher from a 64-character hex key
func NewSecretCipherFromHex(hexKey string) (*SecretCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid hex", ErrInvalidKey)
	}
	return NewSecretCipher(key)
}

// GenerateKey returns a fresh random 32-byte key. Intended for tests and
// non-persistent modes only: ciphertexts produced under an ephemeral key are
// undecryptable after restart.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encrypt seals a plaintext secret under a fresh random nonce. It returns the
// ciphertext with the 16-byte auth tag appended, plus the nonce, both hex
// encoded. Encryption is intentionally non-deterministic.
func (c *SecretCipher) Encrypt(plaintext string) (encrypted string, nonce string, err error) {
	iv := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), hex.EncodeToString(iv), nil
}

// Decrypt opens a hex ciphertext+tag blob under its hex nonce. Any tag
// mismatch or malformed input yields ErrDecryptionFailed.
func (c *SecretCipher) Decrypt(encrypted string, nonce string) (string, error) {
	sealed, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(sealed) < TagSize {
		return "", ErrDecryptionFailed
	}

	iv, err := hex.DecodeString(nonce)
	if err != nil || len(iv) != NonceSize {
		return "", ErrDecryptionFailed
	}

	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
