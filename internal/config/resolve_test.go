package config

import (
	"path/filepath"
	"testing"
)

func TestResolve_DefaultPaths_NoConfig(t *testing.T) {
	tmp := t.TempDir()
	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	if got.ConfigPath != "" {
		t.Fatalf("expected empty config path")
	}
	if got.Format != "auto" {
		t.Fatalf("format=%q want auto", got.Format)
	}
	if got.Service != DefaultService {
		t.Fatalf("service=%q want %q", got.Service, DefaultService)
	}
	if got.Backend != DefaultBackend {
		t.Fatalf("backend=%q want %q", got.Backend, DefaultBackend)
	}
}

func TestResolve_ExplicitConfigMissingIsError(t *testing.T) {
	tmp := t.TempDir()
	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, ConfigPath: "no_such.yaml"})
	if xe == nil {
		t.Fatalf("expected error")
	}
	if xe.Code != "XCRED_CFG_NOT_FOUND" {
		t.Fatalf("code=%s", xe.Code)
	}
}

func TestResolve_ProfileAndFormatPrecedence(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "xcred.yaml", "profiles:\n  default:\n    format: yaml\n  dev:\n    format: json\n")

	// 无 CLI/ENV profile -> 选择 profiles.default
	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.ProfileName != "default" || got.Format != "yaml" {
		t.Fatalf("got profile=%q format=%q", got.ProfileName, got.Format)
	}

	// ENV 覆盖配置
	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, Env: Env{Format: "json"}})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Format != "json" {
		t.Fatalf("format=%q want json", got.Format)
	}

	// CLI 覆盖 ENV
	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, Env: Env{Format: "yaml"}, CLIFormat: "table", CLIFormatSet: true})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Format != "table" {
		t.Fatalf("format=%q want table", got.Format)
	}

	// CLI profile
	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIProfile: "dev", CLIProfileSet: true})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.ProfileName != "dev" || got.Format != "json" {
		t.Fatalf("got profile=%q format=%q", got.ProfileName, got.Format)
	}

	// ENV profile
	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, Env: Env{Profile: "dev"}})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.ProfileName != "dev" {
		t.Fatalf("profile=%q want dev", got.ProfileName)
	}
}

func TestResolve_ProfileNotFound(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "xcred.yaml", "profiles:\n  dev: {}\n")

	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIProfile: "prod", CLIProfileSet: true})
	if xe == nil {
		t.Fatal("expected error")
	}
	if xe.Code != "XCRED_CFG_INVALID" {
		t.Fatalf("code=%s", xe.Code)
	}
}

func TestResolve_ServiceAndBackendPrecedence(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "xcred.yaml", "profiles:\n  default:\n    service: file.svc\n    backend: memory\n")

	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Service != "file.svc" || got.Backend != BackendMemory {
		t.Fatalf("got service=%q backend=%q", got.Service, got.Backend)
	}

	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, Env: Env{Service: "env.svc", Backend: BackendKeyring}})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Service != "env.svc" || got.Backend != BackendKeyring {
		t.Fatalf("got service=%q backend=%q", got.Service, got.Backend)
	}

	got, xe = Resolve(Options{
		WorkDir: tmp, HomeDir: tmp,
		Env:        Env{Service: "env.svc"},
		CLIService: "cli.svc", CLIServiceSet: true,
		CLIBackend: BackendMemory, CLIBackendSet: true,
	})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Service != "cli.svc" || got.Backend != BackendMemory {
		t.Fatalf("got service=%q backend=%q", got.Service, got.Backend)
	}
	if got.Profile.Service != "cli.svc" {
		t.Fatalf("profile service not updated: %q", got.Profile.Service)
	}
}

func TestResolve_UnknownBackend(t *testing.T) {
	tmp := t.TempDir()
	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIBackend: "etcd", CLIBackendSet: true})
	if xe == nil {
		t.Fatal("expected error")
	}
	if xe.Code != "XCRED_CFG_INVALID" {
		t.Fatalf("code=%s", xe.Code)
	}
}

func TestResolve_EmptyService(t *testing.T) {
	tmp := t.TempDir()
	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIService: "", CLIServiceSet: true})
	if xe == nil {
		t.Fatal("expected error")
	}
	if xe.Code != "XCRED_CFG_INVALID" {
		t.Fatalf("code=%s", xe.Code)
	}
}

func TestResolve_VaultDefaults(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	writeConfig(t, work, "xcred.yaml", "profiles:\n  default:\n    backend: vault\n    vault:\n      master_key: env:XCRED_MASTER\n")

	got, xe := Resolve(Options{WorkDir: work, HomeDir: home})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Profile.Vault.Driver != DefaultVaultDriver {
		t.Fatalf("driver=%q", got.Profile.Vault.Driver)
	}
	want := filepath.Join(home, ".local", "share", "xcred", "vault.db")
	if got.Profile.Vault.Path != want {
		t.Fatalf("path=%q want %q", got.Profile.Vault.Path, want)
	}
}

func TestResolve_VaultPathExpansion(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	cfg := "profiles:\n" +
		"  tilde:\n    backend: keyring+vault\n    vault:\n      path: ~/secrets/v.db\n      master_key: env:K\n" +
		"  rel:\n    backend: vault\n    vault:\n      path: data/v.db\n      master_key: env:K\n" +
		"  pg:\n    backend: vault\n    vault:\n      driver: pg\n      dsn: env:DSN\n      master_key: env:K\n"
	writeConfig(t, work, "xcred.yaml", cfg)

	got, xe := Resolve(Options{WorkDir: work, HomeDir: home, CLIProfile: "tilde", CLIProfileSet: true})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Profile.Vault.Path != filepath.Join(home, "secrets", "v.db") {
		t.Fatalf("path=%q", got.Profile.Vault.Path)
	}

	got, xe = Resolve(Options{WorkDir: work, HomeDir: home, CLIProfile: "rel", CLIProfileSet: true})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Profile.Vault.Path != filepath.Join(work, "data", "v.db") {
		t.Fatalf("path=%q", got.Profile.Vault.Path)
	}

	got, xe = Resolve(Options{WorkDir: work, HomeDir: home, CLIProfile: "pg", CLIProfileSet: true})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Profile.Vault.Path != "" {
		t.Fatalf("pg vault must not get a sqlite path, got %q", got.Profile.Vault.Path)
	}
}

func TestResolve_VaultRequiresMasterKey(t *testing.T) {
	tmp := t.TempDir()
	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIBackend: BackendVault, CLIBackendSet: true})
	if xe == nil {
		t.Fatal("expected error")
	}
	if xe.Code != "XCRED_CFG_INVALID" {
		t.Fatalf("code=%s", xe.Code)
	}
}

func TestResolve_MCPEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "xcred.yaml", "mcp:\n  transport: stdio\n  http:\n    addr: 127.0.0.1:1\n    auth_token: keyring:mcp/token\n")

	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.MCP.Transport != "stdio" || got.MCP.HTTP.AllowPlaintextToken {
		t.Fatalf("unexpected mcp: %+v", got.MCP)
	}

	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, Env: Env{
		MCPTransport:     "streamable_http",
		MCPHTTPAddr:      ":2",
		MCPHTTPAuthToken: "plain",
	}})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.MCP.Transport != "streamable_http" || got.MCP.HTTP.Addr != ":2" {
		t.Fatalf("unexpected mcp: %+v", got.MCP)
	}
	if got.MCP.HTTP.AuthToken != "plain" || !got.MCP.HTTP.AllowPlaintextToken {
		t.Fatalf("env token must be accepted as plaintext: %+v", got.MCP.HTTP)
	}
}

func TestExpandPath(t *testing.T) {
	home := filepath.FromSlash("/home/u")
	base := filepath.FromSlash("/etc/xcred")
	abs := filepath.FromSlash("/var/lib/v.db")
	cases := []struct {
		in, want string
	}{
		{"~", home},
		{"~/a.db", filepath.Join(home, "a.db")},
		{"rel.db", filepath.Join(base, "rel.db")},
		{abs, abs},
	}
	for _, c := range cases {
		if got := expandPath(c.in, home, base); got != c.want {
			t.Errorf("expandPath(%q)=%q want %q", c.in, got, c.want)
		}
	}
}
