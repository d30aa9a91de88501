package credstore

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringAPI 是对 OS keyring 的最小抽象，便于测试与跨平台。
// service 对应 keyring 的 service name，account 对应 user/account。
type KeyringAPI interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

// 默认 keyring 实现（使用 zalando/go-keyring）；按平台编译，见 keyring_*.go。
func defaultKeyring() KeyringAPI {
	return &osKeyring{}
}

type osKeyring struct{}

// KeyringBackend stores records in the system keychain
// (macOS Keychain, Secret Service on Linux, Windows Credential Manager).
//
// The keyring only holds strings, so payloads are stored base64-encoded.
// Its zero value is ready for use.
type KeyringBackend struct {
	// API overrides the OS keyring. Nil uses the system keyring.
	API KeyringAPI
}

var _ Backend = (*KeyringBackend)(nil)

func (k *KeyringBackend) api() KeyringAPI {
	if k.API == nil {
		return defaultKeyring()
	}
	return k.API
}

// Save stores data in the keyring.
func (k *KeyringBackend) Save(service, key string, data []byte) error {
	return k.api().Set(service, key, base64.StdEncoding.EncodeToString(data))
}

// Load reads and decodes a record from the keyring.
func (k *KeyringBackend) Load(service, key string) ([]byte, error) {
	raw, err := k.api().Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode keyring payload: %w", err)
	}
	return data, nil
}

// Delete removes a record from the keyring.
func (k *KeyringBackend) Delete(service, key string) error {
	err := k.api().Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		err = nil
	}
	return err
}

// Exists reports whether the keyring holds a record for key.
func (k *KeyringBackend) Exists(service, key string) (bool, error) {
	_, err := k.api().Get(service, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, keyring.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
