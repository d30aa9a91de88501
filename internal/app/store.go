package app

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/zx06/xcred/internal/config"
	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/credstore/vault"
	"github.com/zx06/xcred/internal/errors"
)

var errMasterKeyFormat = stderrors.New("master key must be 32 bytes encoded as hex or base64")

// StoreHandle 持有打开的 Store 及其需要关闭的资源。
type StoreHandle struct {
	Store      *credstore.Store
	Backend    string
	CloseFuncs []func() error
}

func (h *StoreHandle) Close() error {
	var errs []error
	for i := len(h.CloseFuncs) - 1; i >= 0; i-- {
		if err := h.CloseFuncs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

type StoreOptions struct {
	Resolved config.Resolved
	Logger   *slog.Logger
	Keyring  credstore.KeyringAPI // nil 则用 OS keyring
	Getenv   func(string) string  // nil 则用 os.Getenv
	// Memory 用于 memory backend（nil 则新建）；测试可注入以便跨调用共享。
	Memory *credstore.MemoryBackend
}

// OpenStore 按 Resolved.Backend 构造 backend 并返回 Store。
func OpenStore(ctx context.Context, opts StoreOptions) (*StoreHandle, *errors.XError) {
	r := opts.Resolved
	h := &StoreHandle{Backend: r.Backend}

	var backend credstore.Backend
	switch r.Backend {
	case config.BackendMemory:
		mem := opts.Memory
		if mem == nil {
			mem = &credstore.MemoryBackend{}
		}
		backend = mem
	case config.BackendKeyring:
		backend = &credstore.KeyringBackend{API: opts.Keyring}
	case config.BackendVault, config.BackendKeyringVault:
		vb, xe := OpenVault(ctx, opts)
		if xe != nil {
			return nil, xe
		}
		h.CloseFuncs = append(h.CloseFuncs, vb.Close)
		backend = vb
		if r.Backend == config.BackendKeyringVault {
			backend = &credstore.FallbackBackend{
				Primary:   &credstore.KeyringBackend{API: opts.Keyring},
				Secondary: vb,
			}
		}
	default:
		return nil, errors.New(errors.CodeCfgInvalid, "unknown backend", map[string]any{"backend": r.Backend})
	}

	h.Store = credstore.New(backend, credstore.Options{
		Service: r.Service,
		Logger:  opts.Logger,
	})
	return h, nil
}

// OpenVault 解析 vault 配置中的引用并打开 vault（会执行迁移）。
func OpenVault(ctx context.Context, opts StoreOptions) (*vault.Backend, *errors.XError) {
	vc := opts.Resolved.Profile.Vault
	ref := credstore.RefOptions{
		Service: opts.Resolved.Service,
		Keyring: opts.Keyring,
		Getenv:  opts.Getenv,
	}

	if vc.MasterKey == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "vault backend requires vault.master_key", nil)
	}
	keyRef := ref
	keyRef.AllowPlaintext = vc.AllowPlaintextKey
	rawKey, xe := credstore.ResolveRef(vc.MasterKey, keyRef)
	if xe != nil {
		return nil, xe
	}
	masterKey, err := DecodeMasterKey(rawKey)
	if err != nil {
		return nil, errors.Wrap(errors.CodeCfgInvalid, "invalid vault master key", map[string]any{"expected_bytes": vault.KeySize}, err)
	}

	dsn := vc.DSN
	if credstore.IsRef(dsn) {
		v, xe := credstore.ResolveRef(dsn, ref)
		if xe != nil {
			return nil, xe
		}
		dsn = v
	}

	vb, err := vault.Open(ctx, vault.Options{
		Driver:    vc.Driver,
		DSN:       dsn,
		Path:      vc.Path,
		MasterKey: masterKey,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeStoreUnavailable, "failed to open vault", map[string]any{"driver": vc.Driver}, err)
	}
	return vb, nil
}

// DecodeMasterKey 接受 hex（64 字符）或 base64（标准/URL 编码）的 32 字节 key。
func DecodeMasterKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == hex.EncodedLen(vault.KeySize) {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		b, err := enc.DecodeString(s)
		if err == nil && len(b) == vault.KeySize {
			return b, nil
		}
	}
	return nil, errMasterKeyFormat
}
