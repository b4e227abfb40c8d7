package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/domain"
)

// Seeds namespacing the derived addresses. Changing any of them moves every
// record, so they are fixed for the lifetime of a deployment.
const (
	SeedGovernance = "governance"
	SeedPolicy     = "state"
	SeedProposal   = "proposal"
)

// Programs identifies the two owning programs. Derived addresses are a
// function of a namespace seed and one of these ids.
type Programs struct {
	Governance solana.PublicKey
	Token      solana.PublicKey
}

func (p Programs) Validate() error {
	if p.Governance.IsZero() || p.Token.IsZero() {
		return fmt.Errorf("governance and token program ids are required")
	}
	if p.Governance.Equals(p.Token) {
		return fmt.Errorf("governance and token program ids must differ")
	}
	return nil
}

// Derive returns the off-curve program address for seeds under programID.
func Derive(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive address: %w", err)
	}
	return addr, nil
}

func (p Programs) GovernanceAddress() (solana.PublicKey, error) {
	return Derive(p.Governance, []byte(SeedGovernance))
}

func (p Programs) PolicyAddress() (solana.PublicKey, error) {
	return Derive(p.Token, []byte(SeedPolicy))
}

func (p Programs) ProposalAddress(id domain.ProposalID) (solana.PublicKey, error) {
	return Derive(p.Governance, []byte(SeedProposal), id.Seed())
}
