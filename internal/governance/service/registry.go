package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/governance/models"
	"tollgate/internal/ledger"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
	"tollgate/pkg/requestcontext"
)

// Initialize creates the registry at its derived address with authority as
// the single signer.
func (s *Service) Initialize(ctx context.Context, authority solana.PublicKey) (*models.Registry, error) {
	var out *models.Registry
	err := s.run(ctx, "initialize", authority, func(ctx context.Context, tx ledger.Tx) error {
		reg, err := models.NewRegistry(s.store.RegistryAddress(), authority, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.CreateRegistry(ctx, tx, reg); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyInitialized, "governance registry already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create governance registry")
		}
		ev := audit.NewEvent(ctx, audit.EventGovernanceInitialized, authority)
		ev.Subject = reg.Address.String()
		tx.Emit(ev)
		out = reg
		return nil
	})
	return out, err
}

// BindToken latches the registry to the token policy at policy. The policy
// must already name this registry as its governance.
func (s *Service) BindToken(ctx context.Context, caller, policy solana.PublicKey) (*models.Registry, error) {
	var out *models.Registry
	err := s.run(ctx, "bind_token", caller, func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.RequireAuthority(caller); err != nil {
			return err
		}
		if err := reg.CanBindToken(policy); err != nil {
			return err
		}
		governance, err := s.policy.PolicyGovernance(ctx, tx, policy)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "no token policy at %s", policy)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token policy")
		}
		if !governance.Equals(reg.Address) {
			return dErrors.New(dErrors.CodeInvariantViolation, "token policy is governed by a different registry")
		}

		reg.ApplyBindToken(policy, requestcontext.Now(ctx))
		if err := s.saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		ev := audit.NewEvent(ctx, audit.EventTokenBound, caller)
		ev.Subject = reg.Address.String()
		ev.Target = policy.String()
		tx.Emit(ev)
		out = reg
		return nil
	})
	return out, err
}

// SetRequiredApprovals changes the threshold without a proposal. Only the
// update authority may do this, and never after revocation.
func (s *Service) SetRequiredApprovals(ctx context.Context, caller solana.PublicKey, n uint8) (*models.Registry, error) {
	var out *models.Registry
	err := s.run(ctx, "set_required_approvals", caller, func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.RequireUpdateAuthority(caller); err != nil {
			return err
		}
		if err := s.applyRequiredApprovals(ctx, tx, reg, caller, n); err != nil {
			return err
		}
		if err := s.saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		out = reg
		return nil
	})
	if err == nil {
		s.metrics.IncrementConfigChange("set_required_approvals")
	}
	return out, err
}

// SetCooldownPeriod changes the timelock applied to proposals created from
// now on.
func (s *Service) SetCooldownPeriod(ctx context.Context, caller solana.PublicKey, seconds int64) (*models.Registry, error) {
	var out *models.Registry
	err := s.run(ctx, "set_cooldown_period", caller, func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.RequireUpdateAuthority(caller); err != nil {
			return err
		}
		if err := s.applyCooldown(ctx, tx, reg, caller, seconds); err != nil {
			return err
		}
		if err := s.saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		out = reg
		return nil
	})
	if err == nil {
		s.metrics.IncrementConfigChange("set_cooldown_period")
	}
	return out, err
}

// EmergencyPause pauses the bound token immediately. Unpausing requires an
// executed proposal.
func (s *Service) EmergencyPause(ctx context.Context, caller solana.PublicKey) error {
	err := s.run(ctx, "emergency_pause", caller, func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.RequireAuthority(caller); err != nil {
			return err
		}
		if !reg.TokenSet {
			return dErrors.New(dErrors.CodeTokenNotSet, "no token is bound to this registry")
		}
		return s.policy.ApplyPause(ctx, tx, capabilityFor(reg, caller), true)
	})
	if err == nil {
		s.metrics.IncrementConfigChange("emergency_pause")
	}
	return err
}

// GetRegistry returns the current registry.
func (s *Service) GetRegistry(ctx context.Context) (*models.Registry, error) {
	var out *models.Registry
	err := s.run(ctx, "get_registry", requestcontext.Signer(ctx), func(ctx context.Context, tx ledger.Tx) error {
		reg, err := s.loadRegistry(ctx, tx)
		out = reg
		return err
	})
	return out, err
}

func (s *Service) applyRequiredApprovals(ctx context.Context, tx ledger.Tx, reg *models.Registry, actor solana.PublicKey, n uint8) error {
	if err := reg.CanSetRequiredApprovals(n); err != nil {
		return err
	}
	reg.ApplyRequiredApprovals(n, requestcontext.Now(ctx))
	ev := audit.NewEvent(ctx, audit.EventRequiredApprovalsChanged, actor)
	ev.Subject = reg.Address.String()
	ev.Target = strconv.Itoa(int(n))
	tx.Emit(ev)
	return nil
}

func (s *Service) applyCooldown(ctx context.Context, tx ledger.Tx, reg *models.Registry, actor solana.PublicKey, seconds int64) error {
	if err := reg.CanSetCooldown(seconds); err != nil {
		return err
	}
	reg.ApplyCooldown(seconds, requestcontext.Now(ctx))
	ev := audit.NewEvent(ctx, audit.EventCooldownChanged, actor)
	ev.Subject = reg.Address.String()
	ev.Target = strconv.FormatInt(seconds, 10)
	tx.Emit(ev)
	return nil
}
