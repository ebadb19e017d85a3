package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// ErrDecrypt is returned for any failure while opening an envelope: wrong
// key, tampered ciphertext, bad padding or a corrupt file. The causes are
// deliberately indistinguishable so callers cannot leak which part of the
// credential was wrong.
var ErrDecrypt = errors.New("envelope decryption failed")

const legacyIVLen = 16

// Open decrypts an envelope file produced by Seal, or a legacy CBC-format
// file (16-byte IV followed by AES-256-CBC ciphertext, PKCS7-padded, keyed
// directly by the account key). The AEAD form is recognized by its JSON
// object prefix; everything else is treated as legacy.
func Open(key, fileData []byte) ([]byte, error) {
	trimmed := bytes.TrimLeft(fileData, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return openAEAD(key, trimmed)
	}
	return openLegacyCBC(key, fileData)
}

func openAEAD(key, data []byte) ([]byte, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, ErrDecrypt
	}

	salt, err := hex.DecodeString(envelope.Salt)
	if err != nil {
		return nil, ErrDecrypt
	}
	nonce, err := hex.DecodeString(envelope.Nonce)
	if err != nil {
		return nil, ErrDecrypt
	}
	ciphertext, err := hex.DecodeString(envelope.CipherText)
	if err != nil {
		return nil, ErrDecrypt
	}

	block, err := aes.NewCipher(fileKey(key, salt))
	if err != nil {
		return nil, ErrDecrypt
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// openLegacyCBC handles the older raw binary format. The account key is used
// directly, with no per-file PBKDF2 step.
func openLegacyCBC(key, data []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrDecrypt
	}
	if len(data) < legacyIVLen+aes.BlockSize || (len(data)-legacyIVLen)%aes.BlockSize != 0 {
		return nil, ErrDecrypt
	}

	iv := data[:legacyIVLen]
	ciphertext := data[legacyIVLen:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return stripPKCS7(plaintext)
}

func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrDecrypt
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, ErrDecrypt
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, ErrDecrypt
		}
	}
	return data[:len(data)-pad], nil
}
