package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required master key length.
const KeySize = chacha20poly1305.KeySize

var errShortCiphertext = errors.New("ciphertext too short")

// sealer encrypts payloads with XChaCha20-Poly1305.
// Sealed form is nonce || ciphertext || tag.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// recordAD binds a sealed payload to its (service, account) so it cannot
// be moved to another row and still open.
func recordAD(service, account string) []byte {
	ad := make([]byte, 0, len(service)+len(account)+1)
	ad = append(ad, service...)
	ad = append(ad, 0)
	ad = append(ad, account...)
	return ad
}

func (s *sealer) seal(plaintext, ad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, ad), nil
}

func (s *sealer) open(sealed, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, errShortCiphertext
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], ad)
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
