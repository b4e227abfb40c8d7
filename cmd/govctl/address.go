package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tollgate/internal/ledger"
	"tollgate/internal/platform/config"
	"tollgate/pkg/domain"
)

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the derived registry, policy and proposal addresses",
		Args:  cobra.NoArgs,
		RunE:  runAddress,
	}
	cmd.Flags().String("governance-program", config.DefaultGovernanceProgram, "Governance program id")
	cmd.Flags().String("token-program", config.DefaultTokenProgram, "Token program id")
	cmd.Flags().Int64("proposal", -1, "Also print the address of this proposal id")
	return cmd
}

func runAddress(cmd *cobra.Command, _ []string) error {
	govRaw, err := cmd.Flags().GetString("governance-program")
	if err != nil {
		return fmt.Errorf("failed to get governance-program flag: %w", err)
	}
	tokRaw, err := cmd.Flags().GetString("token-program")
	if err != nil {
		return fmt.Errorf("failed to get token-program flag: %w", err)
	}
	proposal, err := cmd.Flags().GetInt64("proposal")
	if err != nil {
		return fmt.Errorf("failed to get proposal flag: %w", err)
	}

	gov, err := domain.ParseAddress(govRaw)
	if err != nil {
		return fmt.Errorf("governance program: %w", err)
	}
	tok, err := domain.ParseAddress(tokRaw)
	if err != nil {
		return fmt.Errorf("token program: %w", err)
	}
	programs := ledger.Programs{Governance: gov, Token: tok}
	if err := programs.Validate(); err != nil {
		return err
	}

	registry, err := programs.GovernanceAddress()
	if err != nil {
		return err
	}
	policy, err := programs.PolicyAddress()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "governance registry  %s\n", registry)
	fmt.Fprintf(out, "token policy         %s\n", policy)
	if proposal >= 0 {
		addr, err := programs.ProposalAddress(domain.ProposalID(proposal))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "proposal %-11d %s\n", proposal, addr)
	}
	return nil
}
