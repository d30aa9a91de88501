package app

import (
	"github.com/zx06/xcred/internal/config"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
	"github.com/zx06/xcred/internal/spec"
)

type App struct {
	Version string
	Commit  string
	Date    string
}

func New(version, commit, date string) App {
	return App{Version: version, Commit: commit, Date: date}
}

func (a App) BuildSpec() spec.Spec {
	globalFlags := []spec.FlagSpec{
		{Name: "config", Default: "", Description: "Config file path (YAML); default: ./xcred.yaml or $HOME/.config/xcred/xcred.yaml"},
		{Name: "profile", Shorthand: "p", Env: "XCRED_PROFILE", Default: "", Description: "Profile name (config: profiles.<name>)"},
		{Name: "format", Shorthand: "f", Env: "XCRED_FORMAT", Default: "auto", Description: "Output format: json|yaml|table|csv|auto"},
		{Name: "backend", Env: "XCRED_BACKEND", Default: "keyring", Description: "Credential backend: keyring|vault|keyring+vault|memory"},
		{Name: "service", Env: "XCRED_SERVICE", Default: "xcred", Description: "Service namespace for stored records"},
		{Name: "log-level", Env: "XCRED_LOG_LEVEL", Default: "warn", Description: "Log level written to stderr: debug|info|warn|error"},
	}
	with := func(extra ...spec.FlagSpec) []spec.FlagSpec {
		flags := make([]spec.FlagSpec, 0, len(globalFlags)+len(extra))
		flags = append(flags, globalFlags...)
		return append(flags, extra...)
	}
	return spec.Spec{
		SchemaVersion: output.SchemaVersion,
		Commands: []spec.CommandSpec{
			{Name: "spec", Description: "Export tool spec for AI/agents", Flags: globalFlags},
			{Name: "version", Description: "Print version information", Flags: globalFlags},
			{
				Name:        "secret set",
				Description: "Store a secret under KEY (value from argument, --stdin, or hidden prompt)",
				Flags:       with(spec.FlagSpec{Name: "stdin", Default: "false", Description: "Read the value from stdin"}),
			},
			{
				Name:        "secret get",
				Description: "Print the secret stored under KEY",
				Flags:       with(spec.FlagSpec{Name: "raw", Default: "false", Description: "Write the bare value without an envelope"}),
			},
			{Name: "secret delete", Description: "Remove the secret stored under KEY", Flags: globalFlags},
			{Name: "secret exists", Description: "Report whether KEY is stored", Flags: globalFlags},
			{Name: "secret list", Description: "List stored keys (memory and vault backends)", Flags: globalFlags},
			{Name: "key ensure", Description: "Get or create the symmetric key for TAG; prints its fingerprint", Flags: globalFlags},
			{Name: "key backup", Description: "Get or create the backup encryption key; prints its fingerprint", Flags: globalFlags},
			{
				Name:        "token set",
				Description: "Store the API token",
				Flags: with(
					spec.FlagSpec{Name: "github", Default: "false", Description: "Operate on the GitHub token instead"},
					spec.FlagSpec{Name: "stdin", Default: "false", Description: "Read the token from stdin"},
				),
			},
			{
				Name:        "token get",
				Description: "Print the stored API token",
				Flags: with(
					spec.FlagSpec{Name: "github", Default: "false", Description: "Operate on the GitHub token instead"},
					spec.FlagSpec{Name: "raw", Default: "false", Description: "Write the bare token without an envelope"},
				),
			},
			{
				Name:        "token delete",
				Description: "Remove the stored API token",
				Flags:       with(spec.FlagSpec{Name: "github", Default: "false", Description: "Operate on the GitHub token instead"}),
			},
			{Name: "vault init", Description: "Create or migrate the vault database for the selected profile", Flags: globalFlags},
			{
				Name:        "mcp server",
				Description: "Run an MCP server exposing non-revealing credential tools",
				Flags: with(
					spec.FlagSpec{Name: "transport", Env: "XCRED_MCP_TRANSPORT", Default: "stdio", Description: "Transport: stdio|streamable_http"},
					spec.FlagSpec{Name: "http-addr", Env: "XCRED_MCP_HTTP_ADDR", Default: "127.0.0.1:8787", Description: "Listen address for streamable_http"},
					spec.FlagSpec{Name: "http-auth-token", Env: "XCRED_MCP_HTTP_AUTH_TOKEN", Default: "", Description: "Bearer token required by streamable_http"},
				),
			},
		},
		Backends:   config.Backends(),
		ErrorCodes: errors.AllCodes(),
		ExitCodes:  spec.ExitCodesFor(errors.AllCodes()),
	}
}

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func (a App) VersionInfo() VersionInfo {
	return VersionInfo{Version: a.Version, Commit: a.Commit, Date: a.Date}
}
