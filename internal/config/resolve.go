package config

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/zx06/xcred/internal/errors"
)

// Resolve 合并 config/profile/env/CLI：CLI > ENV > Config > 默认值。
func Resolve(opts Options) (Resolved, *errors.XError) {
	fillDirs(&opts)

	// 1) 读取配置文件（如有）
	cfg, cfgPath, xe := LoadConfig(opts)
	if xe != nil {
		return Resolved{}, xe
	}

	// 2) 选择 profile：--profile > XCRED_PROFILE > profiles.default > 空
	profile := ""
	explicit := false
	if opts.CLIProfileSet {
		profile, explicit = opts.CLIProfile, true
	} else if opts.Env.Profile != "" {
		profile, explicit = opts.Env.Profile, true
	} else if _, ok := cfg.Profiles["default"]; ok {
		profile = "default"
	}

	var selected Profile
	if profile != "" {
		p, ok := cfg.Profiles[profile]
		if !ok && explicit {
			return Resolved{}, errors.New(errors.CodeCfgInvalid, "profile not found", map[string]any{"name": profile, "config_path": cfgPath})
		}
		selected = p
	}

	// 3) 逐项合并
	format := pick("auto", selected.Format, opts.Env.Format, opts.CLIFormat, opts.CLIFormatSet)
	logLevel := pick("", selected.LogLevel, opts.Env.LogLevel, opts.CLILogLevel, opts.CLILogLevelSet)
	service := pick(DefaultService, selected.Service, opts.Env.Service, opts.CLIService, opts.CLIServiceSet)
	backend := pick(DefaultBackend, selected.Backend, opts.Env.Backend, opts.CLIBackend, opts.CLIBackendSet)

	if !slices.Contains(Backends(), backend) {
		return Resolved{}, errors.New(errors.CodeCfgInvalid, "unknown backend", map[string]any{"backend": backend, "supported": Backends()})
	}
	if service == "" {
		return Resolved{}, errors.New(errors.CodeCfgInvalid, "service namespace is empty", nil)
	}

	// 4) vault 默认值与路径展开
	if UsesVault(backend) {
		if selected.Vault.Driver == "" {
			selected.Vault.Driver = DefaultVaultDriver
		}
		if selected.Vault.Driver == DefaultVaultDriver && selected.Vault.DSN == "" {
			if selected.Vault.Path == "" {
				selected.Vault.Path = filepath.Join(opts.HomeDir, defaultVaultPathSuffix)
			}
			selected.Vault.Path = expandPath(selected.Vault.Path, opts.HomeDir, filepath.Dir(cfgPath))
		}
		if selected.Vault.MasterKey == "" {
			return Resolved{}, errors.New(errors.CodeCfgInvalid, "vault backend requires vault.master_key", map[string]any{"profile": profile})
		}
	}

	// 5) MCP：ENV 覆盖配置文件
	mcp := cfg.MCP
	if opts.Env.MCPTransport != "" {
		mcp.Transport = opts.Env.MCPTransport
	}
	if opts.Env.MCPHTTPAddr != "" {
		mcp.HTTP.Addr = opts.Env.MCPHTTPAddr
	}
	if opts.Env.MCPHTTPAuthToken != "" {
		mcp.HTTP.AuthToken = opts.Env.MCPHTTPAuthToken
		mcp.HTTP.AllowPlaintextToken = true
	}

	selected.Format = format
	selected.LogLevel = logLevel
	selected.Service = service
	selected.Backend = backend

	return Resolved{
		ConfigPath:  cfgPath,
		ProfileName: profile,
		Format:      format,
		LogLevel:    logLevel,
		Service:     service,
		Backend:     backend,
		Profile:     selected,
		MCP:         mcp,
	}, nil
}

// pick 返回优先级最高的非空值：cli（已设置）> env > file > def。
func pick(def, file, env, cli string, cliSet bool) string {
	v := def
	if file != "" {
		v = file
	}
	if env != "" {
		v = env
	}
	if cliSet {
		v = cli
	}
	return v
}

// expandPath 展开 ~/ 前缀；相对路径相对于配置文件所在目录。
func expandPath(p, homeDir, baseDir string) string {
	if p == "~" {
		return homeDir
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir, p[2:])
	}
	if !filepath.IsAbs(p) && baseDir != "" && baseDir != "." {
		return filepath.Join(baseDir, p)
	}
	return p
}
