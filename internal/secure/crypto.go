package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// Crypter seals/opens byte blobs with AES-GCM. Cached transcripts may hold
// private speech content, so values stored outside the process are
// encrypted.
type Crypter struct {
	key []byte
}

// NewCrypter derives a 32-byte AES key from the passphrase.
func NewCrypter(passphrase string) (*Crypter, error) {
	if len(passphrase) < 16 {
		return nil, fmt.Errorf("passphrase length must be >= 16 bytes, got %d", len(passphrase))
	}
	key := sha256.Sum256([]byte(passphrase))
	return &Crypter{key: key[:]}, nil
}

func (c *Crypter) Encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aesgcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt accepts raw ciphertext with the nonce prefix produced by Encrypt
func (c *Crypter) Decrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := aesgcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}
