package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/governance/models"
	"tollgate/internal/ledger"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
	"tollgate/pkg/requestcontext"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var listEvents = map[models.List]audit.AuditEvent{
	models.ListBlacklist:       audit.EventBlacklistUpdated,
	models.ListRestricted:      audit.EventRestrictedUpdated,
	models.ListLiquidityPools:  audit.EventLiquidityPoolUpdated,
	models.ListSellLimitExempt: audit.EventSellLimitExemptionUpdated,
}

// CreateProposal opens a proposal for action. The timelock is the cooldown
// in force now; later cooldown changes do not move it.
func (s *Service) CreateProposal(ctx context.Context, signer solana.PublicKey, action models.Action) (*models.Proposal, error) {
	var out *models.Proposal
	err := s.run(ctx, "create_proposal", signer, func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.RequireSigner(signer); err != nil {
			return err
		}
		if !reg.TokenSet {
			return dErrors.New(dErrors.CodeTokenNotSet, "no token is bound to this registry")
		}
		if err := action.Validate(); err != nil {
			return err
		}

		id := reg.AllocateProposalID()
		addr, err := s.store.ProposalAddress(id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive proposal address")
		}
		now := requestcontext.Now(ctx)
		p, err := models.NewProposal(id, addr, action, signer, now, reg.Cooldown())
		if err != nil {
			return err
		}
		if err := s.store.CreateProposal(ctx, tx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "proposal address already in use")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
		}
		if err := s.saveRegistry(ctx, tx, reg); err != nil {
			return err
		}

		ev := audit.NewEvent(ctx, audit.EventProposalCreated, signer)
		ev.Subject = p.Address.String()
		ev.ProposalID = id.String()
		ev.Decision = string(action.Kind)
		tx.Emit(ev)
		out = p
		return nil
	})
	if err == nil {
		s.metrics.IncrementProposalCreated(string(action.Kind))
	}
	return out, err
}

// Approve records signer's approval and executes the proposal in the same
// transaction once it has quorum and its cooldown has elapsed.
func (s *Service) Approve(ctx context.Context, signer solana.PublicKey, id domain.ProposalID) (*models.Proposal, error) {
	var (
		out   *models.Proposal
		added bool
	)
	err := s.run(ctx, "approve", signer, func(ctx context.Context, tx ledger.Tx) error {
		reg, p, err := s.loadForSigner(ctx, tx, signer, id)
		if err != nil {
			return err
		}
		if err := p.CanApprove(); err != nil {
			return err
		}

		added = p.ApplyApproval(signer)
		if added {
			ev := audit.NewEvent(ctx, audit.EventProposalApproved, signer)
			ev.Subject = p.Address.String()
			ev.ProposalID = id.String()
			tx.Emit(ev)
		}

		if p.Readiness(reg, requestcontext.Now(ctx)) == nil {
			if err := s.execute(ctx, tx, reg, p, signer); err != nil {
				return err
			}
		}
		if err := s.saveProposal(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err == nil {
		if added {
			s.metrics.IncrementApproval()
		}
		if out.IsExecuted() {
			s.metrics.IncrementProposalExecuted(string(out.Action.Kind))
		}
	}
	return out, err
}

// Execute runs an approved proposal whose cooldown has elapsed. Unlike
// Approve it reports why a proposal is not yet executable.
func (s *Service) Execute(ctx context.Context, signer solana.PublicKey, id domain.ProposalID) (*models.Proposal, error) {
	var out *models.Proposal
	err := s.run(ctx, "execute", signer, func(ctx context.Context, tx ledger.Tx) error {
		reg, p, err := s.loadForSigner(ctx, tx, signer, id)
		if err != nil {
			return err
		}
		if err := p.Readiness(reg, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.execute(ctx, tx, reg, p, signer); err != nil {
			return err
		}
		if err := s.saveProposal(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err == nil {
		s.metrics.IncrementProposalExecuted(string(out.Action.Kind))
	}
	return out, err
}

// Reject closes an open proposal without applying it.
func (s *Service) Reject(ctx context.Context, signer solana.PublicKey, id domain.ProposalID, reason string) (*models.Proposal, error) {
	var out *models.Proposal
	err := s.run(ctx, "reject", signer, func(ctx context.Context, tx ledger.Tx) error {
		_, p, err := s.loadForSigner(ctx, tx, signer, id)
		if err != nil {
			return err
		}
		if err := p.CanReject(reason); err != nil {
			return err
		}
		p.ApplyRejection(signer, reason, requestcontext.Now(ctx))
		if err := s.saveProposal(ctx, tx, p); err != nil {
			return err
		}
		ev := audit.NewEvent(ctx, audit.EventProposalRejected, signer)
		ev.Subject = p.Address.String()
		ev.ProposalID = id.String()
		ev.Reason = p.Rejection.Reason
		tx.Emit(ev)
		out = p
		return nil
	})
	if err == nil {
		s.metrics.IncrementProposalRejected()
	}
	return out, err
}

func (s *Service) GetProposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error) {
	var out *models.Proposal
	err := s.run(ctx, "get_proposal", requestcontext.Signer(ctx), func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadProposal(ctx, tx, id)
		out = p
		return err
	})
	return out, err
}

// ListProposals returns proposals newest first, optionally filtered by
// status.
func (s *Service) ListProposals(ctx context.Context, status models.ProposalStatus, limit int) ([]*models.Proposal, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	var out []*models.Proposal
	err := s.run(ctx, "list_proposals", requestcontext.Signer(ctx), func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		out, err = s.store.ListProposals(ctx, tx, reg, status, limit)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
		}
		return nil
	})
	return out, err
}

func (s *Service) loadForSigner(ctx context.Context, tx ledger.Tx, signer solana.PublicKey, id domain.ProposalID) (*models.Registry, *models.Proposal, error) {
	reg, err := s.loadRegistry(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	if err := reg.RequireSigner(signer); err != nil {
		return nil, nil, err
	}
	p, err := s.loadProposal(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	return reg, p, nil
}

func (s *Service) saveProposal(ctx context.Context, tx ledger.Tx, p *models.Proposal) error {
	if err := s.store.SaveProposal(ctx, tx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save proposal")
	}
	return nil
}

// execute applies the action, persists the registry and closes the
// proposal. Any failure aborts the whole transaction, so the proposal stays
// open and can be retried.
func (s *Service) execute(ctx context.Context, tx ledger.Tx, reg *models.Registry, p *models.Proposal, executor solana.PublicKey) error {
	if err := s.apply(ctx, tx, reg, p.Action, executor); err != nil {
		return err
	}
	if err := s.saveRegistry(ctx, tx, reg); err != nil {
		return err
	}
	p.ApplyExecution(requestcontext.Now(ctx))

	ev := audit.NewEvent(ctx, audit.EventProposalExecuted, executor)
	ev.Subject = p.Address.String()
	ev.ProposalID = p.ID.String()
	ev.Decision = string(p.Action.Kind)
	tx.Emit(ev)
	return nil
}

// apply is the single dispatch point for proposal actions.
func (s *Service) apply(ctx context.Context, tx ledger.Tx, reg *models.Registry, a models.Action, executor solana.PublicKey) error {
	now := requestcontext.Now(ctx)

	if list, ok := a.List(); ok {
		changed, err := reg.SetMembership(list, a.Account, a.Enabled, now)
		if err != nil {
			return err
		}
		if changed {
			ev := audit.NewEvent(ctx, listEvents[list], executor)
			ev.Subject = reg.Address.String()
			ev.Target = a.Account.String()
			ev.Decision = strconv.FormatBool(a.Enabled)
			tx.Emit(ev)
		}
		return nil
	}

	switch a.Kind {
	case models.ActionSetRequiredApprovals:
		return s.applyRequiredApprovals(ctx, tx, reg, executor, a.Count)
	case models.ActionSetCooldownPeriod:
		return s.applyCooldown(ctx, tx, reg, executor, a.Seconds)
	case models.ActionAddSigner:
		if err := reg.CanAddSigner(a.Account); err != nil {
			return err
		}
		reg.ApplyAddSigner(a.Account, now)
		s.emitSignerChange(ctx, tx, reg, audit.EventSignerAdded, executor, a.Account)
		return nil
	case models.ActionRemoveSigner:
		if err := reg.CanRemoveSigner(a.Account); err != nil {
			return err
		}
		reg.ApplyRemoveSigner(a.Account, now)
		s.emitSignerChange(ctx, tx, reg, audit.EventSignerRemoved, executor, a.Account)
		return nil
	case models.ActionSetEmergencyPause:
		return s.policy.ApplyPause(ctx, tx, capabilityFor(reg, executor), true)
	case models.ActionClearEmergencyPause:
		return s.policy.ApplyPause(ctx, tx, capabilityFor(reg, executor), false)
	case models.ActionSetProtocolAddress:
		return s.policy.SetProtocolAddress(ctx, tx, capabilityFor(reg, executor), a.Role, a.Account)
	case models.ActionUpdateMetadata:
		if reg.UpdateAuthority.IsZero() {
			return dErrors.New(dErrors.CodeUnauthorized, "metadata update authority has been revoked")
		}
		return s.policy.UpdateMetadata(ctx, tx, capabilityFor(reg, executor), a.Name, a.Symbol, a.URI)
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown action kind %q", a.Kind)
	}
}

func (s *Service) emitSignerChange(ctx context.Context, tx ledger.Tx, reg *models.Registry, event audit.AuditEvent, executor, signer solana.PublicKey) {
	ev := audit.NewEvent(ctx, event, executor)
	ev.Subject = reg.Address.String()
	ev.Target = signer.String()
	tx.Emit(ev)
}

func capabilityFor(reg *models.Registry, caller solana.PublicKey) domain.Capability {
	return domain.Capability{Registry: reg.Address, Caller: caller}
}
