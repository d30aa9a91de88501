package credstore

import (
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	xerrors "github.com/zx06/xcred/internal/errors"
)

const (
	keyringPrefix = "keyring:"
	envPrefix     = "env:"
)

// RefOptions 控制 secret 引用的解析行为。
type RefOptions struct {
	// Service 是 keyring: 引用所在的命名空间（空则为 DefaultService）。
	Service        string
	AllowPlaintext bool                // 是否允许明文（默认 false）
	Keyring        KeyringAPI          // 可注入的 keyring 实现（nil 则用默认）
	Getenv         func(string) string // 可注入的环境变量读取（nil 则用 os.Getenv）
}

// ResolveRef 解析配置中的 secret 值：
//  1. keyring:xxx → 从 OS keyring 读取（由本工具写入的记录）
//  2. env:NAME → 从环境变量读取
//  3. 否则若允许明文 → 直接返回
//  4. 否则报错
func ResolveRef(raw string, opts RefOptions) (string, *xerrors.XError) {
	switch {
	case strings.HasPrefix(raw, keyringPrefix):
		key := strings.TrimPrefix(raw, keyringPrefix)
		if key == "" {
			return "", xerrors.New(xerrors.CodeCfgInvalid, "empty keyring reference", nil)
		}
		service := opts.Service
		if service == "" {
			service = DefaultService
		}
		kb := &KeyringBackend{API: opts.Keyring}
		data, err := kb.Load(service, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return "", xerrors.Wrap(xerrors.CodeSecretNotFound, "secret not found in keyring", map[string]any{"key": key}, err)
			}
			return "", xerrors.Wrap(xerrors.CodeStoreFailed, "failed to read secret from keyring", map[string]any{"key": key}, err)
		}
		if !utf8.Valid(data) {
			return "", xerrors.New(xerrors.CodeDecodeFailed, "keyring secret is not valid UTF-8", map[string]any{"key": key})
		}
		return string(data), nil

	case strings.HasPrefix(raw, envPrefix):
		name := strings.TrimPrefix(raw, envPrefix)
		if name == "" {
			return "", xerrors.New(xerrors.CodeCfgInvalid, "empty env reference", nil)
		}
		getenv := opts.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		val := getenv(name)
		if val == "" {
			return "", xerrors.New(xerrors.CodeSecretNotFound, "environment variable is empty or unset", map[string]any{"env": name})
		}
		return val, nil
	}

	if opts.AllowPlaintext {
		return raw, nil
	}
	return "", xerrors.New(xerrors.CodeCfgInvalid, "plaintext secret not allowed; use a keyring: or env: reference", nil)
}

// IsRef 判断值是否为 keyring: 或 env: 引用。
func IsRef(s string) bool {
	return strings.HasPrefix(s, keyringPrefix) || strings.HasPrefix(s, envPrefix)
}
