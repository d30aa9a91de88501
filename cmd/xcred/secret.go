package main

import (
	"encoding/base64"
	stderrors "errors"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

// NewSecretCommand creates the secret command group
func NewSecretCommand(w *output.Writer) *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage raw credential records",
	}

	secretCmd.AddCommand(newSecretSetCommand(w))
	secretCmd.AddCommand(newSecretGetCommand(w))
	secretCmd.AddCommand(newSecretDeleteCommand(w))
	secretCmd.AddCommand(newSecretExistsCommand(w))
	secretCmd.AddCommand(newSecretListCommand(w))

	return secretCmd
}

func newSecretSetCommand(w *output.Writer) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store a secret under KEY",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			key := args[0]
			value, err := readValue(cmd, args[1:], fromStdin, "Value for "+key+": ")
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				if !s.Save(key, []byte(value)) {
					return errors.New(errors.CodeStoreFailed, "failed to save secret", map[string]any{"key": key})
				}
				return w.WriteOK(format, output.SecretStatus{Service: s.Service(), Key: key, Exists: true, Changed: true})
			})
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the value from stdin")
	return cmd
}

func newSecretGetCommand(w *output.Writer) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the secret stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			key := args[0]
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				data, xe := lookup(s, key)
				if xe != nil {
					return xe
				}
				if raw {
					_, err := w.Out.Write(data)
					return err
				}
				return w.WriteOK(format, secretValue(s.Service(), key, data))
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the bare value without an envelope")
	return cmd
}

func newSecretDeleteCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Remove the secret stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			key := args[0]
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				existed := s.Exists(key)
				if !s.Delete(key) {
					return errors.New(errors.CodeStoreFailed, "failed to delete secret", map[string]any{"key": key})
				}
				return w.WriteOK(format, output.SecretStatus{Service: s.Service(), Key: key, Changed: existed})
			})
		},
	}
}

func newSecretExistsCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "exists KEY",
		Short: "Report whether KEY is stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			key := args[0]
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				return w.WriteOK(format, output.SecretStatus{Service: s.Service(), Key: key, Exists: s.Exists(key)})
			})
		},
	}
}

func newSecretListCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys (memory and vault backends)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(s *credstore.Store) error {
				keys, err := s.Keys()
				if err != nil {
					if stderrors.Is(err, credstore.ErrNotListable) {
						return errors.Wrap(errors.CodeStoreUnavailable, "backend cannot list keys", map[string]any{"backend": GlobalConfig.Resolved.Backend}, err)
					}
					return errors.Wrap(errors.CodeStoreFailed, "failed to list keys", nil, err)
				}
				return w.WriteOK(format, output.KeyList{Service: s.Service(), Keys: keys})
			})
		},
	}
}

// lookup 将 Lookup 的三种结果映射为数据或 XError。
func lookup(s *credstore.Store, key string) ([]byte, *errors.XError) {
	r := s.Lookup(key)
	switch r.Status {
	case credstore.StatusFound:
		return r.Data, nil
	case credstore.StatusNotFound:
		return nil, errors.New(errors.CodeSecretNotFound, "secret not found", map[string]any{"service": s.Service(), "key": key})
	default:
		return nil, errors.Wrap(errors.CodeStoreFailed, "failed to read secret", map[string]any{"service": s.Service(), "key": key}, r.Err)
	}
}

func secretValue(service, key string, data []byte) output.SecretValue {
	if utf8.Valid(data) {
		return output.SecretValue{Service: service, Key: key, Value: string(data), Encoding: output.EncodingUTF8}
	}
	return output.SecretValue{Service: service, Key: key, Value: base64.StdEncoding.EncodeToString(data), Encoding: output.EncodingBase64}
}
