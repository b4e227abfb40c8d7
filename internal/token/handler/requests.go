package handler

import (
	"strings"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/token/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

// InitializePolicyRequest is the body of POST /v1/token/policy. The caller
// becomes the policy authority.
type InitializePolicyRequest struct {
	Governance string `json:"governance"`
	Mint       string `json:"mint"`
	Decimals   uint8  `json:"decimals"`
	Bridge     string `json:"bridge"`
	Treasury   string `json:"treasury"`
	Bond       string `json:"bond"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`

	params models.InitParams
}

func (r *InitializePolicyRequest) Validate() error {
	fields := []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"governance", r.Governance, &r.params.Governance},
		{"mint", r.Mint, &r.params.Mint},
		{"bridge", r.Bridge, &r.params.Bridge},
		{"treasury", r.Treasury, &r.params.Treasury},
		{"bond", r.Bond, &r.params.Bond},
	}
	for _, f := range fields {
		pk, err := domain.ParseAddress(f.raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, f.name+": "+dErrors.Message(err))
		}
		*f.dst = pk
	}
	r.params.Decimals = r.Decimals
	r.params.Name = strings.TrimSpace(r.Name)
	r.params.Symbol = strings.TrimSpace(r.Symbol)
	if r.params.Name == "" || r.params.Symbol == "" {
		return dErrors.New(dErrors.CodeValidation, "name and symbol are required")
	}
	return nil
}

// TransferRequest is the body of POST /v1/token/transfers and
// POST /v1/token/mint.
type TransferRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`

	to solana.PublicKey
}

func (r *TransferRequest) Validate() error {
	pk, err := domain.ParseAddress(r.To)
	if err != nil {
		return err
	}
	if r.Amount == 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	r.to = pk
	return nil
}

// BurnRequest is the body of POST /v1/token/burn.
type BurnRequest struct {
	Amount uint64 `json:"amount"`
}

func (r *BurnRequest) Validate() error {
	if r.Amount == 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	return nil
}
