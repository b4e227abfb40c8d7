package ledger_test

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/suite"

	"tollgate/internal/ledger"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
)

// LedgerContractSuite holds the behaviour every ledger backend must provide.
// Backend suites embed it and set newLedger.
type LedgerContractSuite struct {
	suite.Suite
	newLedger func() ledger.Ledger
	events    func() []audit.Event

	ledger  ledger.Ledger
	program solana.PublicKey
	mint    solana.PublicKey
	alice   solana.PublicKey
	bob     solana.PublicKey
}

var errAbort = errors.New("abort")

func (s *LedgerContractSuite) SetupTest() {
	s.ledger = s.newLedger()
	s.program = solana.NewWallet().PublicKey()
	s.mint = solana.NewWallet().PublicKey()
	s.alice = solana.NewWallet().PublicKey()
	s.bob = solana.NewWallet().PublicKey()
}

func (s *LedgerContractSuite) exec(fn func(ctx context.Context, tx ledger.Tx) error) error {
	return s.ledger.Execute(context.Background(), fn)
}

func (s *LedgerContractSuite) record(addr solana.PublicKey, v any) ledger.Record {
	rec, err := ledger.Encode(addr, s.program, "counter", 1, v)
	s.Require().NoError(err)
	return rec
}

func (s *LedgerContractSuite) balance(owner solana.PublicKey) uint64 {
	var out uint64
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		var err error
		out, err = tx.Balance(ctx, s.mint, owner)
		return err
	}))
	return out
}

// =============================================================================
// Records
// =============================================================================

func (s *LedgerContractSuite) TestCreateIsExclusive() {
	addr := solana.NewWallet().PublicKey()

	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ctx, s.record(addr, map[string]int{"n": 1}))
	}))

	err := s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ctx, s.record(addr, map[string]int{"n": 2}))
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		rec, err := tx.Get(ctx, addr)
		s.Require().NoError(err)
		got, err := ledger.Decode[map[string]int](rec, s.program, "counter", 1)
		s.Require().NoError(err)
		s.Equal(1, (*got)["n"], "second create must not clobber the first")
		return nil
	}))
}

func (s *LedgerContractSuite) TestUpdateRequiresExistingRecordAndOwner() {
	addr := solana.NewWallet().PublicKey()

	err := s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Update(ctx, s.record(addr, 1))
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ctx, s.record(addr, 1))
	}))

	foreign, err := ledger.Encode(addr, solana.NewWallet().PublicKey(), "counter", 1, 2)
	s.Require().NoError(err)
	err = s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Update(ctx, foreign)
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LedgerContractSuite) TestFailedTransactionLeavesNoTrace() {
	addr := solana.NewWallet().PublicKey()
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Mint(ctx, s.mint, s.alice, 100)
	}))
	before, err := s.ledger.Verify(context.Background())
	s.Require().NoError(err)

	err = s.exec(func(ctx context.Context, tx ledger.Tx) error {
		s.Require().NoError(tx.Create(ctx, s.record(addr, 1)))
		s.Require().NoError(tx.Transfer(ctx, s.mint, s.alice, s.bob, 40))
		tx.Emit(audit.Event{Action: string(audit.EventTransferSettled)})
		return errAbort
	})
	s.Require().ErrorIs(err, errAbort)

	s.Equal(uint64(100), s.balance(s.alice))
	s.Equal(uint64(0), s.balance(s.bob))
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.Get(ctx, addr)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))

	after, err := s.ledger.Verify(context.Background())
	s.Require().NoError(err)
	s.Equal(before.Entries, after.Entries, "aborted transaction must not reach the journal")
	if s.events != nil {
		for _, ev := range s.events() {
			s.NotEqual(string(audit.EventTransferSettled), ev.Action)
		}
	}
}

func (s *LedgerContractSuite) TestCommitHooksRunOnlyAfterCommit() {
	var ran []string
	err := s.exec(func(ctx context.Context, tx ledger.Tx) error {
		tx.OnCommit(func() { ran = append(ran, "aborted") })
		return errAbort
	})
	s.Require().ErrorIs(err, errAbort)
	s.Empty(ran)

	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		tx.OnCommit(func() { ran = append(ran, "first") })
		s.Require().NoError(tx.Mint(ctx, s.mint, s.alice, 1))
		tx.OnCommit(func() { ran = append(ran, "second") })
		s.Empty(ran, "hooks must wait for commit")
		return nil
	}))
	s.Equal([]string{"first", "second"}, ran)
}

// =============================================================================
// Balances
// =============================================================================

func (s *LedgerContractSuite) TestTransferConservesSupply() {
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Mint(ctx, s.mint, s.alice, 1_000)
	}))
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Transfer(ctx, s.mint, s.alice, s.bob, 250)
	}))

	s.Equal(uint64(750), s.balance(s.alice))
	s.Equal(uint64(250), s.balance(s.bob))

	v, err := s.ledger.Verify(context.Background())
	s.Require().NoError(err)
	s.True(v.Conserved())
	s.Equal(uint64(1_000), v.Supply[s.mint.String()])
}

func (s *LedgerContractSuite) TestTransferRejectsOverdraft() {
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Mint(ctx, s.mint, s.alice, 10)
	}))
	err := s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Transfer(ctx, s.mint, s.alice, s.bob, 11)
	})
	s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)
	s.Equal(uint64(10), s.balance(s.alice))
}

func (s *LedgerContractSuite) TestSelfTransferIsNoop() {
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Mint(ctx, s.mint, s.alice, 10)
	}))
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Transfer(ctx, s.mint, s.alice, s.alice, 10)
	}))
	s.Equal(uint64(10), s.balance(s.alice))
}

func (s *LedgerContractSuite) TestBurnLowersSupply() {
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Mint(ctx, s.mint, s.alice, 10)
	}))
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Burn(ctx, s.mint, s.alice, 4)
	}))

	v, err := s.ledger.Verify(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(6), v.Supply[s.mint.String()])
	s.True(v.Conserved())
}

// =============================================================================
// Serialization
// =============================================================================

func (s *LedgerContractSuite) TestConcurrentTransfersNeverOverdraw() {
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		return tx.Mint(ctx, s.mint, s.alice, 10)
	}))

	const goroutines = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.exec(func(ctx context.Context, tx ledger.Tx) error {
				return tx.Transfer(ctx, s.mint, s.alice, s.bob, 1)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(10, succeeded)
	s.Equal(uint64(0), s.balance(s.alice))
	s.Equal(uint64(10), s.balance(s.bob))
}

func (s *LedgerContractSuite) TestJournalChainsCommittedTransactions() {
	for i := range 3 {
		s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
			return tx.Mint(ctx, s.mint, s.alice, uint64(i+1))
		}))
	}
	// Read-only transactions add nothing.
	s.Require().NoError(s.exec(func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.Balance(ctx, s.mint, s.alice)
		return err
	}))

	v, err := s.ledger.Verify(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(3), v.Entries)
	s.NotEmpty(v.Head)
}
