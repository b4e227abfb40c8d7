package handler

import (
	"math"
	"strings"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/governance/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

// BindTokenRequest is the body of POST /v1/governance/token.
type BindTokenRequest struct {
	Policy string `json:"policy"`

	policy solana.PublicKey
}

func (r *BindTokenRequest) Validate() error {
	pk, err := domain.ParseAddress(strings.TrimSpace(r.Policy))
	if err != nil {
		return err
	}
	r.policy = pk
	return nil
}

// SetRequiredApprovalsRequest is the body of PUT /v1/governance/required-approvals.
type SetRequiredApprovalsRequest struct {
	RequiredApprovals int `json:"required_approvals"`
}

func (r *SetRequiredApprovalsRequest) Validate() error {
	if r.RequiredApprovals < 1 || r.RequiredApprovals > math.MaxUint8 {
		return dErrors.New(dErrors.CodeValidation, "required_approvals must be between 1 and 255")
	}
	return nil
}

// SetCooldownRequest is the body of PUT /v1/governance/cooldown.
type SetCooldownRequest struct {
	Seconds int64 `json:"seconds"`
}

func (r *SetCooldownRequest) Validate() error {
	if r.Seconds <= 0 {
		return dErrors.New(dErrors.CodeValidation, "seconds must be positive")
	}
	return nil
}

// CreateProposalRequest is the body of POST /v1/governance/proposals.
type CreateProposalRequest struct {
	Kind              string `json:"kind"`
	Account           string `json:"account,omitempty"`
	Enabled           bool   `json:"enabled,omitempty"`
	RequiredApprovals int    `json:"required_approvals,omitempty"`
	Seconds           int64  `json:"seconds,omitempty"`
	Role              string `json:"role,omitempty"`
	Name              string `json:"name,omitempty"`
	Symbol            string `json:"symbol,omitempty"`
	URI               string `json:"uri,omitempty"`

	action models.Action
}

func (r *CreateProposalRequest) Validate() error {
	a := models.Action{
		Kind:    models.ActionKind(strings.TrimSpace(r.Kind)),
		Enabled: r.Enabled,
		Seconds: r.Seconds,
		Name:    strings.TrimSpace(r.Name),
		Symbol:  strings.TrimSpace(r.Symbol),
		URI:     strings.TrimSpace(r.URI),
	}
	if r.Account != "" {
		pk, err := domain.ParseAddress(strings.TrimSpace(r.Account))
		if err != nil {
			return err
		}
		a.Account = pk
	}
	if r.RequiredApprovals < 0 || r.RequiredApprovals > math.MaxUint8 {
		return dErrors.New(dErrors.CodeValidation, "required_approvals must be between 1 and 255")
	}
	a.Count = uint8(r.RequiredApprovals)
	if r.Role != "" {
		role, err := domain.ParseProtocolRole(r.Role)
		if err != nil {
			return err
		}
		a.Role = role
	}
	if err := a.Validate(); err != nil {
		return err
	}
	r.action = a
	return nil
}

// RejectRequest is the body of POST /v1/governance/proposals/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > models.MaxRejectionReason {
		return dErrors.Newf(dErrors.CodeValidation, "reason must be at most %d bytes", models.MaxRejectionReason)
	}
	return nil
}
