package main

import (
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

type tokenOptions struct {
	github    bool
	fromStdin bool
}

func (o *tokenOptions) key() string {
	if o.github {
		return credstore.GitHubTokenKey
	}
	return credstore.TokenKey
}

// NewTokenCommand creates the token command group
func NewTokenCommand(w *output.Writer) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API and GitHub tokens",
	}

	tokenCmd.AddCommand(newTokenSetCommand(w))
	tokenCmd.AddCommand(newTokenGetCommand(w))
	tokenCmd.AddCommand(newTokenDeleteCommand(w))

	return tokenCmd
}

func newTokenSetCommand(w *output.Writer) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "set [TOKEN]",
		Short: "Store the token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			token, err := readValue(cmd, args, opts.fromStdin, "Token: ")
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New(errors.CodeCfgInvalid, "token is empty", nil)
			}
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				var ok bool
				if opts.github {
					ok = s.SaveGitHubToken(token)
				} else {
					ok = s.SaveToken(token)
				}
				if !ok {
					return errors.New(errors.CodeStoreFailed, "failed to save token", map[string]any{"key": opts.key()})
				}
				return w.WriteOK(format, output.SecretStatus{Service: s.Service(), Key: opts.key(), Exists: true, Changed: true})
			})
		},
	}
	cmd.Flags().BoolVar(&opts.github, "github", false, "Operate on the GitHub token instead")
	cmd.Flags().BoolVar(&opts.fromStdin, "stdin", false, "Read the token from stdin")
	return cmd
}

func newTokenGetCommand(w *output.Writer) *cobra.Command {
	opts := &tokenOptions{}
	var raw bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				data, xe := lookup(s, opts.key())
				if xe != nil {
					return xe
				}
				if !utf8.Valid(data) {
					return errors.New(errors.CodeDecodeFailed, "stored token is not valid UTF-8", map[string]any{"key": opts.key()})
				}
				if raw {
					return w.WriteRaw(string(data))
				}
				return w.WriteOK(format, output.SecretValue{Service: s.Service(), Key: opts.key(), Value: string(data), Encoding: output.EncodingUTF8})
			})
		},
	}
	cmd.Flags().BoolVar(&opts.github, "github", false, "Operate on the GitHub token instead")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the bare token without an envelope")
	return cmd
}

func newTokenDeleteCommand(w *output.Writer) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				existed := s.Exists(opts.key())
				var ok bool
				if opts.github {
					ok = s.DeleteGitHubToken()
				} else {
					ok = s.DeleteToken()
				}
				if !ok {
					return errors.New(errors.CodeStoreFailed, "failed to delete token", map[string]any{"key": opts.key()})
				}
				return w.WriteOK(format, output.SecretStatus{Service: s.Service(), Key: opts.key(), Changed: existed})
			})
		},
	}
	cmd.Flags().BoolVar(&opts.github, "github", false, "Operate on the GitHub token instead")
	return cmd
}
