package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

// NewKeyCommand creates the key command group
func NewKeyCommand(w *output.Writer) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage generated symmetric keys (only fingerprints are printed)",
	}

	keyCmd.AddCommand(&cobra.Command{
		Use:   "ensure TAG",
		Short: "Get or create the symmetric key for TAG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyEnsure(cmd, w, args[0])
		},
	})
	keyCmd.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Get or create the backup encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyEnsure(cmd, w, credstore.BackupTag)
		},
	})

	return keyCmd
}

func runKeyEnsure(cmd *cobra.Command, w *output.Writer, tag string) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	if tag == "" {
		return errors.New(errors.CodeCfgInvalid, "key tag is empty", nil)
	}
	return withStore(cmd.Context(), func(s *credstore.Store) error {
		kr, err := s.SymmetricKey(tag)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, "failed to generate key", map[string]any{"tag": tag}, err)
		}
		return w.WriteOK(format, output.KeyInfo{
			Service:     s.Service(),
			Name:        credstore.SymmetricKeyName(tag),
			Fingerprint: credstore.KeyFingerprint(kr.Key),
			Generated:   kr.Generated,
			Persisted:   kr.Persisted,
		})
	})
}
