package rules_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"pgregory.net/rapid"

	"tollgate/internal/rules"
	"tollgate/pkg/domain"
)

// universe is a small fixed address pool so generated inputs collide with
// list membership often enough to exercise every gate.
var universe = func() []solana.PublicKey {
	out := make([]solana.PublicKey, 6)
	for i := range out {
		out[i] = solana.NewWallet().PublicKey()
	}
	return out
}()

func drawSet(t *rapid.T, label string) domain.AddressSet {
	members := rapid.SliceOfDistinct(rapid.SampledFrom(universe), func(a solana.PublicKey) solana.PublicKey { return a }).Draw(t, label)
	return domain.NewAddressSet(members...)
}

func drawInput(t *rapid.T) rules.Input {
	return rules.Input{
		From:    rapid.SampledFrom(universe).Draw(t, "from"),
		To:      rapid.SampledFrom(universe).Draw(t, "to"),
		Amount:  rapid.Uint64().Draw(t, "amount"),
		Balance: rapid.Uint64().Draw(t, "balance"),
		Paused:  rapid.Bool().Draw(t, "paused"),
		Lists: rules.Lists{
			Blacklist:       drawSet(t, "blacklist"),
			Restricted:      drawSet(t, "restricted"),
			LiquidityPools:  drawSet(t, "pools"),
			SellLimitExempt: drawSet(t, "exempt"),
		},
	}
}

func TestAllowedTransfersNeverOverdraw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawInput(t)
		out := rules.Evaluate(in)
		if out.Allowed && (in.Amount > in.Balance || out.NetAmount != in.Amount || out.Tax != 0) {
			t.Fatalf("allowed outcome %+v for %+v", out, in)
		}
	})
}

func TestPausingNeverWidensPermittedTransfers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawInput(t)
		in.Paused = false
		unpaused := rules.Evaluate(in)
		in.Paused = true
		paused := rules.Evaluate(in)
		if paused.Allowed && !unpaused.Allowed {
			t.Fatalf("pause allowed a transfer the unpaused policy denied: %+v", in)
		}
	})
}

func TestSellLimitBoundaryHolds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		balance := rapid.Uint64().Draw(t, "balance")
		pool := universe[0]
		in := rules.Input{
			From:    universe[1],
			To:      pool,
			Balance: balance,
			Lists:   rules.Lists{LiquidityPools: domain.NewAddressSet(pool)},
		}
		limit := rules.SellLimit(balance)

		in.Amount = limit
		if !rules.Evaluate(in).Allowed {
			t.Fatalf("amount at the limit %d denied for balance %d", limit, balance)
		}
		in.Amount = limit + 1
		if got := rules.Evaluate(in).Reason; got != rules.ReasonSellLimitExceeded {
			t.Fatalf("amount over the limit returned %s", got)
		}
	})
}

func TestDenialReasonMatchesFirstGate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawInput(t)
		out := rules.Evaluate(in)

		restrictedParty := in.Lists.Restricted.Has(in.From) || in.Lists.Restricted.Has(in.To)
		var want rules.Reason
		switch {
		case in.Paused && restrictedParty:
			want = rules.ReasonPaused
		case in.Lists.Blacklist.Has(in.From) && in.Lists.Restricted.Has(in.To):
			want = rules.ReasonBlacklisted
		case in.Lists.LiquidityPools.Has(in.To) && !in.Lists.SellLimitExempt.Has(in.From) && in.Amount > rules.SellLimit(in.Balance):
			want = rules.ReasonSellLimitExceeded
		case in.Amount > in.Balance:
			want = rules.ReasonInsufficientBalance
		default:
			want = rules.ReasonAllowed
		}
		if out.Reason != want {
			t.Fatalf("got %s want %s for %+v", out.Reason, want, in)
		}
	})
}
