package ledger_test

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tollgate/internal/ledger"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/audit/store/memory"
)

type MemoryLedgerSuite struct {
	LedgerContractSuite
}

func TestMemoryLedgerSuite(t *testing.T) {
	s := new(MemoryLedgerSuite)
	var store *memory.InMemoryStore
	s.newLedger = func() ledger.Ledger {
		store = memory.NewInMemoryStore()
		return ledger.NewMemory(ledger.WithEventStore(store))
	}
	s.events = func() []audit.Event {
		events, _ := store.ListAll(context.Background())
		return events
	}
	suite.Run(t, s)
}

func TestMemory_CommittedEventsReachStore(t *testing.T) {
	store := memory.NewInMemoryStore()
	l := ledger.NewMemory(ledger.WithEventStore(store))

	err := l.Execute(context.Background(), func(_ context.Context, tx ledger.Tx) error {
		tx.Emit(audit.Event{Action: string(audit.EventTokensMinted)})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, store.ListByAction(context.Background(), audit.EventTokensMinted), 1)
}

func TestMemory_CancelledContextDoesNotRun(t *testing.T) {
	l := ledger.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := l.Execute(ctx, func(context.Context, ledger.Tx) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestMemory_JournalDetectsTampering(t *testing.T) {
	l := ledger.NewMemory()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	for range 2 {
		require.NoError(t, l.Execute(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
			return tx.Mint(ctx, mint, owner, 5)
		}))
	}

	journal := l.Journal()
	require.Len(t, journal, 2)
	assert.Equal(t, journal[0].Hash, journal[1].PrevHash)
	assert.Empty(t, journal[0].PrevHash)
}
