// Package store persists the token policy state as a ledger record owned by
// the token program.
package store

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/ledger"
	"tollgate/internal/token/models"
)

const (
	KindPolicy = "token.policy"

	recordVersion uint16 = 1
)

type Store struct {
	program solana.PublicKey
	policy  solana.PublicKey
}

func New(programs ledger.Programs) (*Store, error) {
	addr, err := programs.PolicyAddress()
	if err != nil {
		return nil, err
	}
	return &Store{program: programs.Token, policy: addr}, nil
}

// PolicyAddress is the single derived policy state address.
func (s *Store) PolicyAddress() solana.PublicKey {
	return s.policy
}

func (s *Store) FindPolicy(ctx context.Context, tx ledger.Tx) (*models.PolicyState, error) {
	rec, err := tx.Get(ctx, s.policy)
	if err != nil {
		return nil, err
	}
	return ledger.Decode[models.PolicyState](rec, s.program, KindPolicy, recordVersion)
}

// CreatePolicy fails with sentinel.ErrConflict when the state exists.
func (s *Store) CreatePolicy(ctx context.Context, tx ledger.Tx, p *models.PolicyState) error {
	rec, err := s.encode(p)
	if err != nil {
		return err
	}
	return tx.Create(ctx, rec)
}

func (s *Store) SavePolicy(ctx context.Context, tx ledger.Tx, p *models.PolicyState) error {
	rec, err := s.encode(p)
	if err != nil {
		return err
	}
	return tx.Update(ctx, rec)
}

func (s *Store) encode(p *models.PolicyState) (ledger.Record, error) {
	if !p.Address.Equals(s.policy) {
		return ledger.Record{}, fmt.Errorf("policy address %s is not the derived address %s", p.Address, s.policy)
	}
	return ledger.Encode(s.policy, s.program, KindPolicy, recordVersion, p)
}
