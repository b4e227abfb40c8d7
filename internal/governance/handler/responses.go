package handler

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/governance/models"
)

type RegistryResponse struct {
	Address           string    `json:"address"`
	Authority         string    `json:"authority"`
	UpdateAuthority   string    `json:"update_authority,omitempty"`
	Signers           []string  `json:"signers"`
	RequiredApprovals uint8     `json:"required_approvals"`
	CooldownSeconds   int64     `json:"cooldown_seconds"`
	TokenSet          bool      `json:"token_set"`
	BoundToken        string    `json:"bound_token,omitempty"`
	Blacklist         []string  `json:"blacklist"`
	Restricted        []string  `json:"restricted"`
	LiquidityPools    []string  `json:"liquidity_pools"`
	SellLimitExempt   []string  `json:"sell_limit_exempt"`
	NextProposalID    uint64    `json:"next_proposal_id"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toRegistryResponse(r *models.Registry) RegistryResponse {
	resp := RegistryResponse{
		Address:           r.Address.String(),
		Authority:         r.Authority.String(),
		Signers:           addresses(r.Signers.Sorted()),
		RequiredApprovals: r.RequiredApprovals,
		CooldownSeconds:   r.CooldownSeconds,
		TokenSet:          r.TokenSet,
		Blacklist:         addresses(r.Blacklist.Sorted()),
		Restricted:        addresses(r.Restricted.Sorted()),
		LiquidityPools:    addresses(r.LiquidityPools.Sorted()),
		SellLimitExempt:   addresses(r.SellLimitExempt.Sorted()),
		NextProposalID:    uint64(r.NextProposalID),
		UpdatedAt:         r.UpdatedAt,
	}
	if !r.UpdateAuthority.IsZero() {
		resp.UpdateAuthority = r.UpdateAuthority.String()
	}
	if r.TokenSet {
		resp.BoundToken = r.BoundToken.String()
	}
	return resp
}

type ProposalResponse struct {
	ID           uint64             `json:"id"`
	Address      string             `json:"address"`
	Action       models.Action      `json:"action"`
	Initiator    string             `json:"initiator"`
	Approvals    []string           `json:"approvals"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	ExecuteAfter time.Time          `json:"execute_after"`
	ExecutedAt   *time.Time         `json:"executed_at,omitempty"`
	Rejection    *RejectionResponse `json:"rejection,omitempty"`
}

type RejectionResponse struct {
	By     string    `json:"by"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

func toProposalResponse(p *models.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ID:           uint64(p.ID),
		Address:      p.Address.String(),
		Action:       p.Action,
		Initiator:    p.Initiator.String(),
		Approvals:    addresses(p.Approvals.Sorted()),
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		ExecuteAfter: p.ExecuteAfter,
		ExecutedAt:   p.ExecutedAt,
	}
	if p.Rejection != nil {
		resp.Rejection = &RejectionResponse{
			By:     p.Rejection.By.String(),
			Reason: p.Rejection.Reason,
			At:     p.Rejection.At,
		}
	}
	return resp
}

type ProposalListResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
}

func addresses(pks []solana.PublicKey) []string {
	out := make([]string, 0, len(pks))
	for _, pk := range pks {
		out = append(out, pk.String())
	}
	return out
}
