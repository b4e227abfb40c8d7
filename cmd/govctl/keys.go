package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 wallet key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return fmt.Errorf("failed to get force flag: %w", err)
			}

			key, err := solana.NewRandomPrivateKey()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			if err := writeKeyFile(out, key, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PublicKey().String())
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "signer.json", "Path of the key file to write")
	cmd.Flags().Bool("force", false, "Overwrite an existing key file")
	return cmd
}

// writeKeyFile stores key in the solana-keygen format with owner-only
// permissions.
func writeKeyFile(path string, key solana.PrivateKey, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	bytes := make([]int, len(key))
	for i, b := range key {
		bytes[i] = int(b)
	}
	data, err := json.Marshal(bytes)
	if err != nil {
		return err
	}

	// #nosec G304 -- path is an operator supplied flag value
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	return f.Close()
}

func readKeyFile(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return key, nil
}

// keyFlag registers the --key flag shared by commands that sign.
func keyFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("key", "k", "signer.json", "Wallet key file (solana-keygen format)")
}

func loadKey(cmd *cobra.Command) (solana.PrivateKey, error) {
	path, err := cmd.Flags().GetString("key")
	if err != nil {
		return nil, fmt.Errorf("failed to get key flag: %w", err)
	}
	return readKeyFile(path)
}
