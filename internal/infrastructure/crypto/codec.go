package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	codecVersion byte = 1
	keySize           = chacha20poly1305.KeySize
	nonceSize         = chacha20poly1305.NonceSizeX
)

var (
	hkdfSalt = []byte("roomchat/content-codec")
	hkdfInfo = []byte("message-content/v1")
)

var (
	// ErrDecode is returned for blobs that were not produced by this codec or its key.
	ErrDecode   = errors.New("crypto: ciphertext cannot be decoded")
	ErrEmptyKey = errors.New("crypto: content key is empty")
)

// Codec seals message content at rest with XChaCha20-Poly1305.
// Blob layout (base64): version || nonce || ciphertext+tag.
type Codec struct {
	key  []byte
	rand io.Reader
}

// NewCodec derives the content key from secret via HKDF-SHA256.
func NewCodec(secret string) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrEmptyKey
	}
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), hkdfSalt, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("crypto: derive key: %w", err)
	}
	return &Codec{key: key, rand: rand.Reader}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("crypto: init aead: %w", err)
	}
	buf := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+aead.Overhead())
	buf[0] = codecVersion
	if _, err := io.ReadFull(c.rand, buf[1:]); err != nil {
		return "", fmt.Errorf("crypto: read nonce: %w", err)
	}
	sealed := aead.Seal(buf, buf[1:], []byte(plaintext), buf[:1])
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *Codec) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrDecode
	}
	if len(raw) < 1+nonceSize+chacha20poly1305.Overhead || raw[0] != codecVersion {
		return "", ErrDecode
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("crypto: init aead: %w", err)
	}
	plaintext, err := aead.Open(nil, raw[1:1+nonceSize], raw[1+nonceSize:], raw[:1])
	if err != nil {
		return "", ErrDecode
	}
	return string(plaintext), nil
}
