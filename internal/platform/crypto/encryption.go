// Package crypto seals stored values with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize = 32
	// sealVersion prefixes every sealed value so the format can change later.
	sealVersion byte = 1
)

var hkdfInfo = []byte("wagevo kv at-rest v1")

var (
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrUnknownVersion     = errors.New("unknown sealed value version")
)

// Service seals values for storage. The zero key leaves values untouched.
type Service struct {
	aead cipher.AEAD
}

// New builds a Service from DATA_ENCRYPTION_KEY. An empty key yields a
// pass-through Service. Hex or base64 keys of 32 bytes are used as is; any
// other value is treated as a passphrase and stretched with HKDF-SHA256.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

// Seal encrypts plain and binds it to binding, which must be presented again
// to Open. The kv layer binds each value to its key.
func (s *Service) Seal(plain, binding []byte) ([]byte, error) {
	if len(plain) == 0 || !s.Configured() {
		return plain, nil
	}
	nonceSize := s.aead.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plain)+s.aead.Overhead())
	out[0] = sealVersion
	if _, err := io.ReadFull(rand.Reader, out[1:]); err != nil {
		return nil, err
	}
	return s.aead.Seal(out, out[1:], plain, binding), nil
}

func (s *Service) Open(sealed, binding []byte) ([]byte, error) {
	if len(sealed) == 0 || !s.Configured() {
		return sealed, nil
	}
	if sealed[0] != sealVersion {
		return nil, ErrUnknownVersion
	}
	nonceSize := s.aead.NonceSize()
	if len(sealed) < 1+nonceSize {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, sealed[1:1+nonceSize], sealed[1+nonceSize:], binding)
}

func decodeKey(raw string) ([]byte, error) {
	if len(raw) == 2*keySize {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(raw); err == nil && len(decoded) == keySize {
			return decoded, nil
		}
	}
	out := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(raw), nil, hkdfInfo), out); err != nil {
		return nil, err
	}
	return out, nil
}
