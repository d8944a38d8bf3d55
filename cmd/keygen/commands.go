package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"tenantgate/internal/keys"
	"tenantgate/internal/platform/config"
)

type keyFlags struct {
	dir    string
	keymap string
}

func newRootCmd() *cobra.Command {
	flags := &keyFlags{}
	root := &cobra.Command{
		Use:   "keygen",
		Short: "Manage tenantgate JWT signing keys",
		Long: `Manage the RSA key pairs and keymap the server signs tokens with.

Rotation adds a new active key and keeps earlier keys published in the
JWKS so tokens they signed keep verifying. Retire a key only once every
token it signed has expired.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dir, "dir", envOr("JWT_KEY_DIR", config.DefaultKeyDir), "key directory")
	root.PersistentFlags().StringVar(&flags.keymap, "keymap", envOr("JWT_KEYMAP_FILE", config.DefaultKeymapFile), "keymap file name inside --dir")

	root.AddCommand(newGenerateCmd(flags), newRetireCmd(flags), newListCmd(flags))
	return root
}

func newGenerateCmd(flags *keyFlags) *cobra.Command {
	var (
		kid      string
		bits     int
		password string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create an RSA key pair and mark it active",
		Example: `  keygen generate --dir keys
  keygen generate --dir keys --kid 2026-10 --bits 2048`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kid == "" {
				kid = strings.ToLower(ulid.Make().String())
			}
			if err := keys.Generate(keys.GenerateOptions{
				Dir:        flags.dir,
				KeymapFile: flags.keymap,
				KID:        kid,
				Bits:       bits,
				Password:   password,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated key %s in %s (now active)\n", kid, flags.dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&kid, "kid", "", "key identifier, a lowercase ULID when empty")
	cmd.Flags().IntVar(&bits, "bits", 4096, "RSA modulus size")
	cmd.Flags().StringVar(&password, "password", os.Getenv("JWT_PRIVATE_KEY_PASSWORD"), "passphrase for the private key PEM")
	return cmd
}

func newRetireCmd(flags *keyFlags) *cobra.Command {
	var kid string
	cmd := &cobra.Command{
		Use:     "retire",
		Short:   "Remove an inactive key from the keymap",
		Example: "  keygen retire --dir keys --kid 01j9z3k5x8d2v4q6w7e8r9t0ya",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kid == "" {
				return errors.New("--kid is required")
			}
			if err := keys.Retire(flags.dir, flags.keymap, kid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retired key %s; its PEM files were left in %s\n", kid, flags.dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&kid, "kid", "", "key identifier to remove")
	return cmd
}

func newListCmd(flags *keyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show keymap entries, * marks the active key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			km, err := keys.ReadKeymap(filepath.Join(flags.dir, flags.keymap))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, kid := range km.IDs() {
				marker := " "
				if km[kid].Active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\t%s\n", marker, kid, km[kid].Public)
			}
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
