package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2 parameters for the per-file key. Every envelope gets a fresh
	// salt, so reusing the same account key across saves never reuses a
	// file key.
	pbkdf2Iterations = 100000
	saltLen          = 16
	nonceLen         = 12
)

// Envelope is the on-disk AEAD form: hex-encoded salt, nonce and AES-GCM
// ciphertext. One envelope per account file.
type Envelope struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"ciphertext"`
}

// fileKey derives the per-file AES key from the account key and the
// envelope's salt.
func fileKey(key, salt []byte) []byte {
	return pbkdf2.Key(key, salt, pbkdf2Iterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under key and returns the serialized envelope.
// key is the account key from DeriveKey; the envelope carries everything
// needed to re-derive the per-file key on load.
func Seal(key, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	block, err := aes.NewCipher(fileKey(key, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	envelope := Envelope{
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		CipherText: hex.EncodeToString(ciphertext),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}
