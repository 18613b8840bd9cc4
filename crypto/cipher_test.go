package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *SecretCipher {
	t.Helper()

	key, err := GenerateKey()
	require.NoError(t, err)

	c, err := NewSecretCipher(key)
	require.NoError(t, err)
	return c
}

func TestNewSecretCipher_InvalidKey(t *testing.T) {
	_, err := NewSecretCipher([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewSecretCipher(nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewSecretCipherFromHex(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	c, err := NewSecretCipherFromHex(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = NewSecretCipherFromHex("not-hex")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewSecretCipherFromHex("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	plaintexts := []string{
		"sk-123",
		"",
		"ghp_" + strings.Repeat("x", 36),
		"unicode: ñ 世界 🔑",
		strings.Repeat("long-secret-", 512),
	}

	for _, plaintext := range plaintexts {
		encrypted, nonce, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		// Both outputs are printable hex
		_, err = hex.DecodeString(encrypted)
		require.NoError(t, err)
		require.Len(t, nonce, NonceSize*2)

		decrypted, err := c.Decrypt(encrypted, nonce)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	e1, n1, err := c.Encrypt("same input")
	require.NoError(t, err)
	e2, n2, err := c.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, e1, e2)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	encrypted, nonce, err := c.Encrypt("sk-123")
	require.NoError(t, err)

	raw, err := hex.DecodeString(encrypted)
	require.NoError(t, err)

	// Flip one bit in every byte position, including the trailing tag
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		_, err := c.Decrypt(hex.EncodeToString(tampered), nonce)
		assert.ErrorIs(t, err, ErrDecryptionFailed, "byte %d", i)
	}
}

func TestDecrypt_MismatchedNonce(t *testing.T) {
	c := newTestCipher(t)

	encrypted, _, err := c.Encrypt("sk-123")
	require.NoError(t, err)

	otherNonce := hex.EncodeToString(make([]byte, NonceSize))
	_, err = c.Decrypt(encrypted, otherNonce)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_WrongKey(t *testing.T) {
	c1 := newTestCipher(t)
	c2 := newTestCipher(t)

	encrypted, nonce, err := c1.Encrypt("sk-123")
	require.NoError(t, err)

	_, err = c2.Decrypt(encrypted, nonce)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_MalformedInputs(t *testing.T) {
	c := newTestCipher(t)

	cases := []struct {
		name      string
		encrypted string
		nonce     string
	}{
		{"non-hex ciphertext", "zzzz", hex.EncodeToString(make([]byte, NonceSize))},
		{"ciphertext shorter than tag", "abcd", hex.EncodeToString(make([]byte, NonceSize))},
		{"non-hex nonce", strings.Repeat("ab", TagSize+4), "zzzz"},
		{"short nonce", strings.Repeat("ab", TagSize+4), "abcd"},
		{"empty everything", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decrypt(tc.encrypted, tc.nonce)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}
