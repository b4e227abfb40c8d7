package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tollgate/internal/auth/signer"
)

const defaultAudience = "tollgate"

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a single-use bearer token signed by the wallet key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := issueToken(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	keyFlag(cmd)
	tokenFlags(cmd)
	return cmd
}

func tokenFlags(cmd *cobra.Command) {
	cmd.Flags().String("audience", defaultAudience, "Token audience configured on the server")
	cmd.Flags().Duration("ttl", time.Minute, "Token lifetime (the server caps it)")
}

func issueToken(cmd *cobra.Command) (string, error) {
	key, err := loadKey(cmd)
	if err != nil {
		return "", err
	}
	audience, err := cmd.Flags().GetString("audience")
	if err != nil {
		return "", fmt.Errorf("failed to get audience flag: %w", err)
	}
	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return "", fmt.Errorf("failed to get ttl flag: %w", err)
	}
	if ttl <= 0 || ttl > signer.DefaultMaxTTL {
		return "", fmt.Errorf("ttl must be between 0 and %s", signer.DefaultMaxTTL)
	}
	return signer.Issue(key, audience, ttl, time.Now())
}
