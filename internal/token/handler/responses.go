package handler

import (
	"time"

	"tollgate/internal/token/models"
)

type PolicyResponse struct {
	Address         string    `json:"address"`
	Governance      string    `json:"governance"`
	Authority       string    `json:"authority"`
	Mint            string    `json:"mint"`
	MintAuthority   string    `json:"mint_authority,omitempty"`
	Decimals        uint8     `json:"decimals"`
	Bridge          string    `json:"bridge"`
	Treasury        string    `json:"treasury"`
	Bond            string    `json:"bond"`
	EmergencyPaused bool      `json:"emergency_paused"`
	Supply          uint64    `json:"supply"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toPolicyResponse(p *models.PolicyState, supply uint64) PolicyResponse {
	resp := PolicyResponse{
		Address:         p.Address.String(),
		Governance:      p.Governance.String(),
		Authority:       p.Authority.String(),
		Mint:            p.Mint.String(),
		Decimals:        p.Decimals,
		Bridge:          p.Bridge.String(),
		Treasury:        p.Treasury.String(),
		Bond:            p.Bond.String(),
		EmergencyPaused: p.EmergencyPaused,
		Supply:          supply,
		UpdatedAt:       p.UpdatedAt,
	}
	if !p.MintAuthority.IsZero() {
		resp.MintAuthority = p.MintAuthority.String()
	}
	return resp
}

type TransferResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    uint64    `json:"amount"`
	NetAmount uint64    `json:"net_amount"`
	Tax       uint64    `json:"tax"`
	SettledAt time.Time `json:"settled_at"`
}

func toTransferResponse(t *models.Transfer) TransferResponse {
	return TransferResponse{
		From:      t.From.String(),
		To:        t.To.String(),
		Amount:    t.Amount,
		NetAmount: t.NetAmount,
		Tax:       t.Tax,
		SettledAt: t.SettledAt,
	}
}

type BalanceResponse struct {
	Owner  string `json:"owner"`
	Mint   string `json:"mint"`
	Amount uint64 `json:"amount"`
}

func toBalanceResponse(b *models.Balance) BalanceResponse {
	return BalanceResponse{Owner: b.Owner.String(), Mint: b.Mint.String(), Amount: b.Amount}
}
