package service

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/ledger"
	"tollgate/internal/metadata"
	"tollgate/internal/token/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
	"tollgate/pkg/requestcontext"
)

// InitializePolicy creates the policy state and registers the token's
// metadata with the collaborator.
func (s *Service) InitializePolicy(ctx context.Context, params models.InitParams) (*models.PolicyState, error) {
	var out *models.PolicyState
	err := s.run(ctx, "initialize_policy", params.Authority, func(ctx context.Context, tx ledger.Tx) error {
		p, err := models.NewPolicyState(s.store.PolicyAddress(), params, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.CreatePolicy(ctx, tx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyInitialized, "token policy already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create token policy")
		}
		err = s.createMetadata(ctx, metadata.Token{
			Mint:            p.Mint,
			Name:            params.Name,
			Symbol:          params.Symbol,
			UpdateAuthority: p.Authority,
		})
		if err != nil {
			return metadataError(err)
		}
		ev := audit.NewEvent(ctx, audit.EventPolicyInitialized, params.Authority)
		ev.Subject = p.Address.String()
		ev.Target = p.Governance.String()
		tx.Emit(ev)
		out = p
		return nil
	})
	return out, err
}

// createMetadata registers token with the collaborator. The registry call is
// not part of the ledger transaction, so a retry after a failed commit finds
// the entry from the earlier attempt; an identical entry counts as created.
func (s *Service) createMetadata(ctx context.Context, token metadata.Token) error {
	err := s.metadata.Create(ctx, token)
	if !errors.Is(err, metadata.ErrConflict) {
		return err
	}
	existing, getErr := s.metadata.Get(ctx, token.Mint)
	if getErr != nil {
		return err
	}
	if existing.Name != token.Name || existing.Symbol != token.Symbol ||
		existing.URI != token.URI || !existing.UpdateAuthority.Equals(token.UpdateAuthority) {
		return err
	}
	s.logger.InfoContext(ctx, "token metadata already registered by an earlier attempt",
		"mint", token.Mint.String(),
	)
	return nil
}

// Mint credits to with freshly issued tokens.
func (s *Service) Mint(ctx context.Context, caller, to solana.PublicKey, amount uint64) (*models.Balance, error) {
	if err := domain.RequireNonZero("to", to); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	var out *models.Balance
	err := s.run(ctx, "mint", caller, func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		if err != nil {
			return err
		}
		if err := p.RequireMintAuthority(caller); err != nil {
			return err
		}
		if err := tx.Mint(ctx, p.Mint, to, amount); err != nil {
			if errors.Is(err, sentinel.ErrOverflow) {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "mint would overflow supply")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint")
		}
		ev := audit.NewEvent(ctx, audit.EventTokensMinted, caller)
		ev.Subject = p.Mint.String()
		ev.Target = to.String()
		ev.Amount = amount
		tx.Emit(ev)

		out, err = balanceOf(ctx, tx, p, to)
		return err
	})
	if err == nil {
		s.metrics.AddSupplyChange("mint", amount)
	}
	return out, err
}

// Burn destroys amount of owner's tokens.
func (s *Service) Burn(ctx context.Context, owner solana.PublicKey, amount uint64) (*models.Balance, error) {
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	var out *models.Balance
	err := s.run(ctx, "burn", owner, func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		if err != nil {
			return err
		}
		if err := tx.Burn(ctx, p.Mint, owner, amount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.Wrap(err, dErrors.CodeInsufficientBalance, "insufficient balance")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to burn")
		}
		ev := audit.NewEvent(ctx, audit.EventTokensBurned, owner)
		ev.Subject = p.Mint.String()
		ev.Amount = amount
		tx.Emit(ev)

		out, err = balanceOf(ctx, tx, p, owner)
		return err
	})
	if err == nil {
		s.metrics.AddSupplyChange("burn", amount)
	}
	return out, err
}

// RevokeAuthorities clears the mint authority, the registry update
// authority and the metadata update authority in one transaction. Nothing
// restores them.
func (s *Service) RevokeAuthorities(ctx context.Context, caller solana.PublicKey) (*models.PolicyState, error) {
	var out *models.PolicyState
	err := s.run(ctx, "revoke_authorities", caller, func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		if err != nil {
			return err
		}
		if err := p.RequireMintAuthority(caller); err != nil {
			return err
		}
		if err := s.governance.RevokeUpdateAuthority(ctx, tx, p.Governance, caller); err != nil {
			return err
		}
		p.ApplyRevokeMintAuthority(requestcontext.Now(ctx))
		if err := savePolicy(ctx, tx, s.store, p); err != nil {
			return err
		}
		if err := s.metadata.ClearUpdateAuthority(ctx, p.Mint); err != nil {
			return metadataError(err)
		}
		ev := audit.NewEvent(ctx, audit.EventAuthoritiesRevoked, caller)
		ev.Subject = p.Address.String()
		ev.Target = p.Governance.String()
		tx.Emit(ev)
		out = p
		return nil
	})
	return out, err
}

func (s *Service) GetPolicy(ctx context.Context) (*models.PolicyState, error) {
	var out *models.PolicyState
	err := s.run(ctx, "get_policy", requestcontext.Signer(ctx), func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		out = p
		return err
	})
	return out, err
}

func (s *Service) BalanceOf(ctx context.Context, owner solana.PublicKey) (*models.Balance, error) {
	var out *models.Balance
	err := s.run(ctx, "balance_of", requestcontext.Signer(ctx), func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		if err != nil {
			return err
		}
		out, err = balanceOf(ctx, tx, p, owner)
		return err
	})
	return out, err
}

// Supply returns the outstanding supply of the policy mint.
func (s *Service) Supply(ctx context.Context) (uint64, error) {
	var out uint64
	err := s.run(ctx, "supply", requestcontext.Signer(ctx), func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		if err != nil {
			return err
		}
		out, err = tx.Supply(ctx, p.Mint)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read supply")
		}
		return nil
	})
	return out, err
}

func balanceOf(ctx context.Context, tx ledger.Tx, p *models.PolicyState, owner solana.PublicKey) (*models.Balance, error) {
	amount, err := tx.Balance(ctx, p.Mint, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return &models.Balance{Owner: owner, Mint: p.Mint, Amount: amount}, nil
}
