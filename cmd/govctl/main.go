// Package main is the entry point for govctl, the operator CLI for tollgate.
// It generates wallet keys, mints signer tokens and calls the API with them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "govctl",
		Short: "Operator CLI for the tollgate governance service",
		Long: `govctl drives a tollgate server with wallet-signed requests.

Keys use the Solana keygen file format (a JSON array of 64 bytes), so wallets
created with solana-keygen work unchanged.

Example:
  govctl keygen --out signer.json
  govctl call POST /v1/governance/proposals --key signer.json \
    --data '{"kind":"set_blacklist","account":"<address>","enabled":true}'`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newKeygenCmd(),
		newTokenCmd(),
		newCallCmd(),
		newAddressCmd(),
	)
	return root
}
