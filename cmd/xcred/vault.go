package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xcred/internal/app"
	"github.com/zx06/xcred/internal/config"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

// VaultInfo is the result of vault init.
type VaultInfo struct {
	Profile  string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Driver   string `json:"driver" yaml:"driver"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Migrated bool   `json:"migrated" yaml:"migrated"`
}

// NewVaultCommand creates the vault command group
func NewVaultCommand(w *output.Writer) *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage the encrypted SQL vault",
	}

	vaultCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create or migrate the vault database for the selected profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			r := GlobalConfig.Resolved
			if !config.UsesVault(r.Backend) {
				return errors.New(errors.CodeCfgInvalid, "vault init requires backend vault or keyring+vault", map[string]any{"backend": r.Backend})
			}
			vb, xe := app.OpenVault(cmd.Context(), app.StoreOptions{
				Resolved: r,
				Logger:   GlobalConfig.Logger,
				Keyring:  keyringAPI,
			})
			if xe != nil {
				return xe
			}
			if err := vb.Close(); err != nil {
				return errors.Wrap(errors.CodeStoreFailed, "failed to close vault", nil, err)
			}
			return w.WriteOK(format, VaultInfo{
				Profile:  r.ProfileName,
				Driver:   r.Profile.Vault.Driver,
				Path:     r.Profile.Vault.Path,
				Migrated: true,
			})
		},
	})

	return vaultCmd
}
