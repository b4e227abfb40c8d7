package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalOpen     ProposalStatus = "open"
	ProposalApproved ProposalStatus = "approved"
	ProposalExecuted ProposalStatus = "executed"
	ProposalRejected ProposalStatus = "rejected"
)

// ParseProposalStatus parses a status filter.
func ParseProposalStatus(raw string) (ProposalStatus, error) {
	switch s := ProposalStatus(raw); s {
	case ProposalOpen, ProposalApproved, ProposalExecuted, ProposalRejected:
		return s, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown proposal status %q", raw)
	}
}

const MaxRejectionReason = 256

// Rejection records who closed a proposal without executing it.
type Rejection struct {
	By     solana.PublicKey `json:"by"`
	Reason string           `json:"reason"`
	At     time.Time        `json:"at"`
}

// Proposal is a pending governance action.
//
// Invariants:
//   - Open -> Executed and Open -> Rejected are the only transitions
//   - ExecutedAt is set exactly once
//   - ExecuteAfter is fixed at creation and never recomputed
type Proposal struct {
	ID           domain.ProposalID `json:"id"`
	Address      solana.PublicKey  `json:"address"`
	Action       Action            `json:"action"`
	Initiator    solana.PublicKey  `json:"initiator"`
	Approvals    domain.AddressSet `json:"approvals"`
	Status       ProposalStatus    `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	ExecuteAfter time.Time         `json:"execute_after"`
	ExecutedAt   *time.Time        `json:"executed_at,omitempty"`
	Rejection    *Rejection        `json:"rejection,omitempty"`
}

// NewProposal opens a proposal whose timelock is the registry cooldown at
// creation time.
func NewProposal(id domain.ProposalID, addr solana.PublicKey, action Action, initiator solana.PublicKey, now time.Time, cooldown time.Duration) (*Proposal, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	return &Proposal{
		ID:           id,
		Address:      addr,
		Action:       action,
		Initiator:    initiator,
		Approvals:    domain.NewAddressSet(),
		Status:       ProposalOpen,
		CreatedAt:    now,
		ExecuteAfter: now.Add(cooldown),
	}, nil
}

func (p *Proposal) IsExecuted() bool { return p.Status == ProposalExecuted }

// CanApprove is checked before recording an approval or attempting
// execution.
func (p *Proposal) CanApprove() error {
	switch p.Status {
	case ProposalExecuted:
		return dErrors.Newf(dErrors.CodeAlreadyExecuted, "proposal %s already executed", p.ID)
	case ProposalRejected:
		return dErrors.Newf(dErrors.CodeInvalidState, "proposal %s was rejected", p.ID)
	}
	return nil
}

// ApplyApproval records signer's approval. Repeat approvals are no-ops.
func (p *Proposal) ApplyApproval(signer solana.PublicKey) bool {
	return p.Approvals.Add(signer)
}

// ApprovalCount counts approvals still held by current signers; approvals
// from removed signers no longer count toward quorum.
func (p *Proposal) ApprovalCount(signers domain.AddressSet) int {
	n := 0
	for a := range p.Approvals {
		if signers.Has(a) {
			n++
		}
	}
	return n
}

// Readiness returns nil when the proposal may execute now.
func (p *Proposal) Readiness(reg *Registry, now time.Time) error {
	if err := p.CanApprove(); err != nil {
		return err
	}
	if have := p.ApprovalCount(reg.Signers); have < int(reg.RequiredApprovals) {
		return dErrors.Newf(dErrors.CodeInsufficientApprovals,
			"proposal %s has %d of %d approvals", p.ID, have, reg.RequiredApprovals)
	}
	if now.Before(p.ExecuteAfter) {
		return dErrors.Newf(dErrors.CodeCooldownNotExpired,
			"proposal %s executable after %s", p.ID, p.ExecuteAfter.Format(time.RFC3339))
	}
	return nil
}

// ApplyExecution closes the proposal. Callers apply the action first.
func (p *Proposal) ApplyExecution(now time.Time) {
	p.Status = ProposalExecuted
	p.ExecutedAt = &now
}

func (p *Proposal) CanReject(reason string) error {
	if err := p.CanApprove(); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if utf8.RuneCountInString(reason) > MaxRejectionReason {
		return dErrors.Newf(dErrors.CodeValidation, "rejection reason exceeds %d characters", MaxRejectionReason)
	}
	return nil
}

func (p *Proposal) ApplyRejection(by solana.PublicKey, reason string, now time.Time) {
	p.Status = ProposalRejected
	p.Rejection = &Rejection{By: by, Reason: strings.TrimSpace(reason), At: now}
}
