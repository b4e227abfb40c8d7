package service

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/ledger"
	"tollgate/internal/rules"
	dErrors "tollgate/pkg/domain-errors"
	"tollgate/pkg/platform/sentinel"
	"tollgate/pkg/requestcontext"
)

// The methods below are the registry surface the token program calls from
// inside its own transactions.

// TransferLists returns the policy lists that apply to transfers of the
// token whose policy state lives at policy. Without an initialized registry
// bound to that policy the lists are empty.
func (s *Service) TransferLists(ctx context.Context, tx ledger.Tx, policy solana.PublicKey) (rules.Lists, error) {
	reg, err := s.store.FindRegistry(ctx, tx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return rules.Lists{}, nil
	}
	if err != nil {
		return rules.Lists{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load governance registry")
	}
	if !reg.TokenSet || !reg.BoundToken.Equals(policy) {
		return rules.Lists{}, nil
	}
	return rules.Lists{
		Blacklist:       reg.Blacklist,
		Restricted:      reg.Restricted,
		LiquidityPools:  reg.LiquidityPools,
		SellLimitExempt: reg.SellLimitExempt,
	}, nil
}

// RevokeUpdateAuthority zeroes the registry update authority as part of the
// token's authority revocation. The caller must hold it.
func (s *Service) RevokeUpdateAuthority(ctx context.Context, tx ledger.Tx, registry, caller solana.PublicKey) error {
	reg, err := s.loadRegistry(ctx, tx)
	if err != nil {
		return err
	}
	if !reg.Address.Equals(registry) {
		return dErrors.New(dErrors.CodeInvariantViolation, "token policy names a different governance registry")
	}
	if err := reg.RequireUpdateAuthority(caller); err != nil {
		return err
	}
	reg.ApplyRevokeUpdateAuthority(requestcontext.Now(ctx))
	return s.saveRegistry(ctx, tx, reg)
}
