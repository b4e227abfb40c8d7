// Package ledger is the transactional substrate every governance and token
// operation runs on.
//
// A Ledger executes one transaction at a time. Inside a transaction callers
// read and write versioned records at derived addresses and move token
// balances. If the callback returns an error nothing it did is visible
// afterwards: no record writes, no balance changes, no journal entry and no
// events. On success every change is committed together and appended to a
// hash-chained journal that Verify can later replay.
package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	audit "tollgate/pkg/platform/audit"
)

// Tx is the view of the ledger inside a single transaction.
type Tx interface {
	// Get returns the record at addr or sentinel.ErrNotFound.
	Get(ctx context.Context, addr solana.PublicKey) (Record, error)
	// Create stores a new record. It fails with sentinel.ErrConflict if the
	// address is occupied.
	Create(ctx context.Context, rec Record) error
	// Update overwrites an existing record. The owner must match the stored
	// owner; otherwise sentinel.ErrNotFound is returned.
	Update(ctx context.Context, rec Record) error

	Balance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error)
	Supply(ctx context.Context, mint solana.PublicKey) (uint64, error)
	// Transfer debits from and credits to. It fails with
	// sentinel.ErrInsufficientFunds when from cannot cover amount.
	Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error
	// Mint credits to and raises supply; sentinel.ErrOverflow on wrap.
	Mint(ctx context.Context, mint, to solana.PublicKey, amount uint64) error
	// Burn debits from and lowers supply.
	Burn(ctx context.Context, mint, from solana.PublicKey, amount uint64) error

	// Emit queues an audit event that is persisted only if the transaction
	// commits.
	Emit(event audit.Event)
	// OnCommit registers fn to run once the transaction has committed. It is
	// dropped on rollback.
	OnCommit(fn func())
}

// Ledger runs serialized, atomic transactions.
type Ledger interface {
	Execute(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Verify(ctx context.Context) (Verification, error)
}

// Verification summarizes a journal replay.
type Verification struct {
	Entries uint64    `json:"entries"`
	Head    string    `json:"head"`
	Checked time.Time `json:"checked_at"`
	// Supply per mint as recorded, and the sum of balances for the same
	// mint. They are equal when conservation holds.
	Supply   map[string]uint64 `json:"supply"`
	Balances map[string]uint64 `json:"balances"`
}

// Conserved reports whether every mint's balances sum to its supply.
func (v Verification) Conserved() bool {
	for mint, s := range v.Supply {
		if v.Balances[mint] != s {
			return false
		}
	}
	for mint, b := range v.Balances {
		if v.Supply[mint] != b {
			return false
		}
	}
	return true
}
