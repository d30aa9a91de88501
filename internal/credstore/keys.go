package credstore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// SymmetricKeySize is the length in bytes of generated keys (256 bits).
const SymmetricKeySize = 32

// Well-known record keys.
const (
	BackupTag      = "backup"
	TokenKey       = "api_token"
	GitHubTokenKey = "github_token"
)

// SymmetricKeyName is the record key holding the symmetric key for tag.
func SymmetricKeyName(tag string) string {
	return tag + "_encryption_key"
}

// KeyResult is a symmetric key and where it came from.
type KeyResult struct {
	Key []byte

	// Generated is true if the key was created by this call.
	Generated bool

	// Persisted is false only when a generated key could not be saved.
	// Such a key works for the current process but is lost on restart.
	Persisted bool
}

// SymmetricKey returns the stored symmetric key for tag,
// generating and saving a new 256-bit key if none exists.
//
// A generated key is returned even if saving it failed;
// check KeyResult.Persisted. The save is not retried.
// An error is returned only if no random key could be produced.
func (s *Store) SymmetricKey(tag string) (KeyResult, error) {
	name := SymmetricKeyName(tag)
	log := s.log.With(slog.String("op", "symmetric-key"), slog.String("key", name))

	if data, ok := s.Load(name); ok {
		if len(data) == SymmetricKeySize {
			log.Debug("using stored key")
			return KeyResult{Key: data, Persisted: true}, nil
		}
		log.Warn("stored key has wrong length; replacing it",
			slog.Int("want", SymmetricKeySize), slog.Int("got", len(data)))
	}

	key := make([]byte, SymmetricKeySize)
	if _, err := io.ReadFull(s.random(), key); err != nil {
		log.Error("key generation failed", slog.Any("error", err))
		return KeyResult{}, fmt.Errorf("generate key: %w", err)
	}
	log.Info("generated key", slog.String("fingerprint", KeyFingerprint(key)))

	persisted := s.Save(name, key)
	if !persisted {
		log.Warn("generated key was not persisted; it will not survive a restart")
	}
	return KeyResult{Key: key, Generated: true, Persisted: persisted}, nil
}

// BackupEncryptionKey is SymmetricKey for the "backup" tag.
func (s *Store) BackupEncryptionKey() (KeyResult, error) {
	return s.SymmetricKey(BackupTag)
}

// SaveToken stores an API token.
func (s *Store) SaveToken(token string) bool {
	return s.Save(TokenKey, []byte(token))
}

// LoadToken returns the stored API token.
func (s *Store) LoadToken() (string, bool) {
	return s.loadString(TokenKey)
}

// DeleteToken removes the stored API token.
func (s *Store) DeleteToken() bool {
	return s.Delete(TokenKey)
}

// SaveGitHubToken stores a GitHub token.
func (s *Store) SaveGitHubToken(token string) bool {
	return s.Save(GitHubTokenKey, []byte(token))
}

// LoadGitHubToken returns the stored GitHub token.
func (s *Store) LoadGitHubToken() (string, bool) {
	return s.loadString(GitHubTokenKey)
}

// DeleteGitHubToken removes the stored GitHub token.
func (s *Store) DeleteGitHubToken() bool {
	return s.Delete(GitHubTokenKey)
}

func (s *Store) loadString(key string) (string, bool) {
	data, ok := s.Load(key)
	if !ok {
		return "", false
	}
	if !utf8.Valid(data) {
		s.log.Error("stored value is not valid UTF-8",
			slog.String("op", "load"), slog.String("key", key))
		return "", false
	}
	return string(data), true
}

func (s *Store) random() io.Reader {
	if s.rand != nil {
		return s.rand
	}
	return rand.Reader
}

// KeyFingerprint identifies a key without revealing it:
// the hex of the first 8 bytes of its SHA-256.
func KeyFingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:8])
}
