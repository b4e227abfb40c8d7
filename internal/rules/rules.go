// Package rules is the transfer gate. Evaluate is pure domain logic: no I/O,
// no side effects. Callers gather the policy lists, pause flag and balance
// inside their ledger transaction and act on the returned outcome.
package rules

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

// SellLimitPercent caps a single transfer into a liquidity pool at this
// share of the sender's balance.
const SellLimitPercent = 5

// Reason identifies the gate that decided a transfer.
type Reason string

const (
	ReasonAllowed             Reason = "allowed"
	ReasonPaused              Reason = "paused"
	ReasonBlacklisted         Reason = "blacklisted"
	ReasonSellLimitExceeded   Reason = "sell_limit_exceeded"
	ReasonInsufficientBalance Reason = "insufficient_balance"
)

var reasonCodes = map[Reason]dErrors.Code{
	ReasonPaused:              dErrors.CodePaused,
	ReasonBlacklisted:         dErrors.CodeBlacklisted,
	ReasonSellLimitExceeded:   dErrors.CodeSellLimitExceeded,
	ReasonInsufficientBalance: dErrors.CodeInsufficientBalance,
}

// Lists are the registry address sets the gate consults. The zero value
// (no bound registry) restricts nothing.
type Lists struct {
	Blacklist       domain.AddressSet
	Restricted      domain.AddressSet
	LiquidityPools  domain.AddressSet
	SellLimitExempt domain.AddressSet
}

// Input is everything one transfer decision depends on.
type Input struct {
	From    solana.PublicKey
	To      solana.PublicKey
	Amount  uint64
	Balance uint64 // sender balance before the transfer
	Paused  bool
	Lists   Lists
}

// Outcome is the gate result. Transfers carry no tax, so an allowed
// transfer moves exactly Amount.
type Outcome struct {
	Allowed   bool
	Reason    Reason
	NetAmount uint64
	Tax       uint64
}

// Err converts a denial into a domain error; nil when allowed.
func (o Outcome) Err() error {
	if o.Allowed {
		return nil
	}
	return dErrors.Newf(reasonCodes[o.Reason], "transfer denied: %s", o.Reason)
}

// Evaluate applies the gates in order and stops at the first that denies:
//  1. pause, when either side is restricted
//  2. blacklisted sender to a restricted recipient
//  3. sell limit into a liquidity pool unless the sender is exempt
//  4. balance sufficiency
func Evaluate(in Input) Outcome {
	restrictedParty := in.Lists.Restricted.Has(in.To) || in.Lists.Restricted.Has(in.From)
	if in.Paused && restrictedParty {
		return deny(ReasonPaused)
	}

	if in.Lists.Blacklist.Has(in.From) && in.Lists.Restricted.Has(in.To) {
		return deny(ReasonBlacklisted)
	}

	if in.Lists.LiquidityPools.Has(in.To) && !in.Lists.SellLimitExempt.Has(in.From) &&
		in.Amount > SellLimit(in.Balance) {
		return deny(ReasonSellLimitExceeded)
	}

	if in.Amount > in.Balance {
		return deny(ReasonInsufficientBalance)
	}

	return Outcome{Allowed: true, Reason: ReasonAllowed, NetAmount: in.Amount}
}

// SellLimit is floor(balance * SellLimitPercent / 100) computed in 128 bits.
func SellLimit(balance uint64) uint64 {
	hi, lo := bits.Mul64(balance, SellLimitPercent)
	q, _ := bits.Div64(hi, lo, 100)
	return q
}

func deny(r Reason) Outcome {
	return Outcome{Reason: r}
}
