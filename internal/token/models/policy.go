package models

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

// PolicyState is the per-token record the transfer gate and the governance
// capabilities act on.
//
// Invariants:
//   - Governance, Authority, Mint and the protocol roles are never zero
//   - MintAuthority starts as Authority and can only move to zero
//   - only a capability naming Governance can change the pause flag or the
//     protocol roles
type PolicyState struct {
	Address         solana.PublicKey `json:"address"`
	Governance      solana.PublicKey `json:"governance"`
	Authority       solana.PublicKey `json:"authority"`
	Mint            solana.PublicKey `json:"mint"`
	MintAuthority   solana.PublicKey `json:"mint_authority"`
	Decimals        uint8            `json:"decimals"`
	Bridge          solana.PublicKey `json:"bridge"`
	Treasury        solana.PublicKey `json:"treasury"`
	Bond            solana.PublicKey `json:"bond"`
	EmergencyPaused bool             `json:"emergency_paused"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// InitParams are the inputs of policy initialization.
type InitParams struct {
	Authority  solana.PublicKey
	Governance solana.PublicKey
	Mint       solana.PublicKey
	Decimals   uint8
	Bridge     solana.PublicKey
	Treasury   solana.PublicKey
	Bond       solana.PublicKey
	Name       string
	Symbol     string
}

const MaxDecimals = 18

func (p InitParams) Validate() error {
	for _, f := range []struct {
		name string
		addr solana.PublicKey
	}{
		{"authority", p.Authority},
		{"governance", p.Governance},
		{"mint", p.Mint},
		{"bridge", p.Bridge},
		{"treasury", p.Treasury},
		{"bond", p.Bond},
	} {
		if err := domain.RequireNonZero(f.name, f.addr); err != nil {
			return err
		}
	}
	if p.Decimals > MaxDecimals {
		return dErrors.Newf(dErrors.CodeValidation, "decimals must be at most %d", MaxDecimals)
	}
	if p.Name == "" || p.Symbol == "" {
		return dErrors.New(dErrors.CodeValidation, "name and symbol are required")
	}
	return nil
}

func NewPolicyState(addr solana.PublicKey, params InitParams, now time.Time) (*PolicyState, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &PolicyState{
		Address:       addr,
		Governance:    params.Governance,
		Authority:     params.Authority,
		Mint:          params.Mint,
		MintAuthority: params.Authority,
		Decimals:      params.Decimals,
		Bridge:        params.Bridge,
		Treasury:      params.Treasury,
		Bond:          params.Bond,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Authorize accepts a capability only from the governing registry.
func (p *PolicyState) Authorize(capability domain.Capability) error {
	if capability.Registry.IsZero() || !capability.Registry.Equals(p.Governance) {
		return dErrors.New(dErrors.CodeUnauthorized, "capability was not issued by the governing registry")
	}
	return nil
}

func (p *PolicyState) RequireMintAuthority(caller solana.PublicKey) error {
	if p.MintAuthority.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "mint authority has been revoked")
	}
	if !caller.Equals(p.MintAuthority) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the mint authority")
	}
	return nil
}

// ApplyPause sets the pause flag and reports whether it changed.
func (p *PolicyState) ApplyPause(paused bool, now time.Time) bool {
	if p.EmergencyPaused == paused {
		return false
	}
	p.EmergencyPaused = paused
	p.UpdatedAt = now
	return true
}

func (p *PolicyState) ProtocolAddress(role domain.ProtocolRole) solana.PublicKey {
	switch role {
	case domain.RoleBridge:
		return p.Bridge
	case domain.RoleTreasury:
		return p.Treasury
	case domain.RoleBond:
		return p.Bond
	}
	return solana.PublicKey{}
}

func (p *PolicyState) ApplyProtocolAddress(role domain.ProtocolRole, account solana.PublicKey, now time.Time) error {
	if err := domain.RequireNonZero(string(role), account); err != nil {
		return err
	}
	switch role {
	case domain.RoleBridge:
		p.Bridge = account
	case domain.RoleTreasury:
		p.Treasury = account
	case domain.RoleBond:
		p.Bond = account
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown protocol role %q", role)
	}
	p.UpdatedAt = now
	return nil
}

// ApplyRevokeMintAuthority clears the mint authority permanently.
func (p *PolicyState) ApplyRevokeMintAuthority(now time.Time) {
	p.MintAuthority = solana.PublicKey{}
	p.UpdatedAt = now
}
