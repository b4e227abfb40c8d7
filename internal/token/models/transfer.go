package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Transfer is the receipt of a settled transfer.
type Transfer struct {
	From      solana.PublicKey `json:"from"`
	To        solana.PublicKey `json:"to"`
	Amount    uint64           `json:"amount"`
	NetAmount uint64           `json:"net_amount"`
	Tax       uint64           `json:"tax"`
	SettledAt time.Time        `json:"settled_at"`
}

// Balance is an account's holding of the policy mint.
type Balance struct {
	Owner  solana.PublicKey `json:"owner"`
	Mint   solana.PublicKey `json:"mint"`
	Amount uint64           `json:"amount"`
}
