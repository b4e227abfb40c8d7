package models_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"pgregory.net/rapid"

	"tollgate/internal/governance/models"
)

// Any sequence of guarded signer and threshold changes keeps the quorum
// reachable.
func TestQuorumInvariantSurvivesGuardedChanges(t *testing.T) {
	pool := make([]solana.PublicKey, models.MaxSigners+3)
	for i := range pool {
		pool[i] = solana.NewWallet().PublicKey()
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		reg, err := models.NewRegistry(solana.NewWallet().PublicKey(), pool[0], now)
		if err != nil {
			t.Fatal(err)
		}
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				addr := rapid.SampledFrom(pool).Draw(t, "add")
				if reg.CanAddSigner(addr) == nil {
					reg.ApplyAddSigner(addr, now)
				}
			case 1:
				addr := rapid.SampledFrom(pool).Draw(t, "remove")
				if reg.CanRemoveSigner(addr) == nil {
					reg.ApplyRemoveSigner(addr, now)
				}
			case 2:
				n := uint8(rapid.IntRange(0, models.MaxSigners+1).Draw(t, "required"))
				if reg.CanSetRequiredApprovals(n) == nil {
					reg.ApplyRequiredApprovals(n, now)
				}
			}
			if err := reg.CheckInvariants(); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
		}
	})
}
