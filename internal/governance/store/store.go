// Package store persists the governance registry and its proposals as ledger
// records owned by the governance program.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/governance/models"
	"tollgate/internal/ledger"
	"tollgate/pkg/domain"
	"tollgate/pkg/platform/sentinel"
)

const (
	KindRegistry = "governance.registry"
	KindProposal = "governance.proposal"

	recordVersion uint16 = 1
)

// ErrNotFound is returned when no registry or proposal exists at the
// derived address.
var ErrNotFound = sentinel.ErrNotFound

// Store reads and writes governance records inside a ledger transaction.
type Store struct {
	programs ledger.Programs
	registry solana.PublicKey
}

func New(programs ledger.Programs) (*Store, error) {
	addr, err := programs.GovernanceAddress()
	if err != nil {
		return nil, err
	}
	return &Store{programs: programs, registry: addr}, nil
}

// RegistryAddress is the single derived registry address for the program.
func (s *Store) RegistryAddress() solana.PublicKey {
	return s.registry
}

func (s *Store) ProposalAddress(id domain.ProposalID) (solana.PublicKey, error) {
	return s.programs.ProposalAddress(id)
}

func (s *Store) FindRegistry(ctx context.Context, tx ledger.Tx) (*models.Registry, error) {
	rec, err := tx.Get(ctx, s.registry)
	if err != nil {
		return nil, err
	}
	reg, err := ledger.Decode[models.Registry](rec, s.programs.Governance, KindRegistry, recordVersion)
	if err != nil {
		return nil, err
	}
	normalizeRegistry(reg)
	return reg, nil
}

// CreateRegistry fails with sentinel.ErrConflict when the registry exists.
func (s *Store) CreateRegistry(ctx context.Context, tx ledger.Tx, reg *models.Registry) error {
	rec, err := s.encodeRegistry(reg)
	if err != nil {
		return err
	}
	return tx.Create(ctx, rec)
}

func (s *Store) SaveRegistry(ctx context.Context, tx ledger.Tx, reg *models.Registry) error {
	rec, err := s.encodeRegistry(reg)
	if err != nil {
		return err
	}
	return tx.Update(ctx, rec)
}

func (s *Store) encodeRegistry(reg *models.Registry) (ledger.Record, error) {
	if !reg.Address.Equals(s.registry) {
		return ledger.Record{}, fmt.Errorf("registry address %s is not the derived address %s", reg.Address, s.registry)
	}
	return ledger.Encode(s.registry, s.programs.Governance, KindRegistry, recordVersion, reg)
}

func (s *Store) FindProposal(ctx context.Context, tx ledger.Tx, id domain.ProposalID) (*models.Proposal, error) {
	addr, err := s.programs.ProposalAddress(id)
	if err != nil {
		return nil, err
	}
	rec, err := tx.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	p, err := ledger.Decode[models.Proposal](rec, s.programs.Governance, KindProposal, recordVersion)
	if err != nil {
		return nil, err
	}
	if p.Approvals == nil {
		p.Approvals = domain.NewAddressSet()
	}
	return p, nil
}

func (s *Store) CreateProposal(ctx context.Context, tx ledger.Tx, p *models.Proposal) error {
	rec, err := ledger.Encode(p.Address, s.programs.Governance, KindProposal, recordVersion, p)
	if err != nil {
		return err
	}
	return tx.Create(ctx, rec)
}

func (s *Store) SaveProposal(ctx context.Context, tx ledger.Tx, p *models.Proposal) error {
	rec, err := ledger.Encode(p.Address, s.programs.Governance, KindProposal, recordVersion, p)
	if err != nil {
		return err
	}
	return tx.Update(ctx, rec)
}

// ListProposals walks ids downward from the newest allocated id. Ids are
// dense, so a missing record means the proposal was never committed.
func (s *Store) ListProposals(ctx context.Context, tx ledger.Tx, reg *models.Registry, status models.ProposalStatus, limit int) ([]*models.Proposal, error) {
	out := make([]*models.Proposal, 0, limit)
	for id := reg.NextProposalID - 1; id >= 1 && len(out) < limit; id-- {
		p, err := s.FindProposal(ctx, tx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func normalizeRegistry(reg *models.Registry) {
	for _, set := range []*domain.AddressSet{&reg.Signers, &reg.Blacklist, &reg.Restricted, &reg.LiquidityPools, &reg.SellLimitExempt} {
		if *set == nil {
			*set = domain.NewAddressSet()
		}
	}
}
