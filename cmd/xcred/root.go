package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zx06/xcred/internal/config"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/log"
)

// Build-time variables (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config holds the resolved configuration
type Config struct {
	FormatStr   string
	ConfigStr   string
	ProfileStr  string
	BackendStr  string
	ServiceStr  string
	LogLevelStr string
	Resolved    config.Resolved
	Logger      *slog.Logger
}

// GlobalConfig holds the global configuration state
var GlobalConfig = &Config{}

// NewRootCommand creates the root command. Logs go to logOut.
func NewRootCommand(logOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "xcred",
		Short:         "Store and retrieve credentials in the OS keyring or an encrypted vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// CLI > ENV > Config
			flags := cmd.Flags()
			if flags.Changed("config") && GlobalConfig.ConfigStr == "" {
				return errors.New(errors.CodeCfgInvalid, "config path is empty", nil)
			}

			env, err := config.LoadEnv()
			if err != nil {
				return errors.Wrap(errors.CodeCfgInvalid, "invalid environment", nil, err)
			}

			r, xe := config.Resolve(config.Options{
				ConfigPath:     GlobalConfig.ConfigStr,
				CLIProfile:     GlobalConfig.ProfileStr,
				CLIProfileSet:  flags.Changed("profile"),
				CLIFormat:      GlobalConfig.FormatStr,
				CLIFormatSet:   flags.Changed("format"),
				CLIBackend:     GlobalConfig.BackendStr,
				CLIBackendSet:  flags.Changed("backend"),
				CLIService:     GlobalConfig.ServiceStr,
				CLIServiceSet:  flags.Changed("service"),
				CLILogLevel:    GlobalConfig.LogLevelStr,
				CLILogLevelSet: flags.Changed("log-level"),
				Env:            env,
			})
			if xe != nil {
				return xe
			}

			level, err := log.ParseLevel(r.LogLevel)
			if err != nil {
				return errors.Wrap(errors.CodeCfgInvalid, "invalid log level", map[string]any{"log_level": r.LogLevel}, err)
			}

			GlobalConfig.Resolved = r
			GlobalConfig.FormatStr = r.Format
			GlobalConfig.ProfileStr = r.ProfileName
			GlobalConfig.Logger = log.NewWithLevel(logOut, level)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&GlobalConfig.ConfigStr, "config", "", "Config file path (YAML); default: ./xcred.yaml or $HOME/.config/xcred/xcred.yaml")
	pf.StringVarP(&GlobalConfig.ProfileStr, "profile", "p", "", "Profile name (config: profiles.<name>)")
	pf.StringVarP(&GlobalConfig.FormatStr, "format", "f", "auto", "Output format: json|yaml|table|csv|auto")
	pf.StringVar(&GlobalConfig.BackendStr, "backend", config.DefaultBackend, "Credential backend: keyring|vault|keyring+vault|memory")
	pf.StringVar(&GlobalConfig.ServiceStr, "service", config.DefaultService, "Service namespace for stored records")
	pf.StringVar(&GlobalConfig.LogLevelStr, "log-level", "warn", "Log level written to stderr: debug|info|warn|error")

	return root
}
