package service

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/ledger"
	"tollgate/internal/rules"
	"tollgate/internal/token/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
	"tollgate/pkg/requestcontext"
)

// Transfer runs the transfer gate and, when it allows, moves the balance in
// the same ledger transaction. A denied transfer changes nothing in the
// ledger; it is reported as a security event instead.
func (s *Service) Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64) (*models.Transfer, error) {
	start := time.Now()
	defer s.metrics.ObserveTransfer(start)

	if err := domain.RequireNonZero("from", from); err != nil {
		return nil, err
	}
	if err := domain.RequireNonZero("to", to); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}

	var (
		outcome rules.Outcome
		receipt *models.Transfer
	)
	err := s.run(ctx, "transfer", from, func(ctx context.Context, tx ledger.Tx) error {
		p, err := s.loadPolicy(ctx, tx)
		if err != nil {
			return err
		}
		lists, err := s.governance.TransferLists(ctx, tx, p.Address)
		if err != nil {
			return err
		}
		balance, err := tx.Balance(ctx, p.Mint, from)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
		}

		outcome = rules.Evaluate(rules.Input{
			From:    from,
			To:      to,
			Amount:  amount,
			Balance: balance,
			Paused:  p.EmergencyPaused,
			Lists:   lists,
		})
		if !outcome.Allowed {
			return outcome.Err()
		}

		if err := tx.Transfer(ctx, p.Mint, from, to, outcome.NetAmount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.Wrap(err, dErrors.CodeInsufficientBalance, "insufficient balance")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to move balance")
		}

		now := requestcontext.Now(ctx)
		ev := audit.NewEvent(ctx, audit.EventTransferSettled, from)
		ev.Subject = from.String()
		ev.Target = to.String()
		ev.Amount = outcome.NetAmount
		tx.Emit(ev)
		receipt = &models.Transfer{
			From:      from,
			To:        to,
			Amount:    amount,
			NetAmount: outcome.NetAmount,
			Tax:       outcome.Tax,
			SettledAt: now,
		}
		return nil
	})

	if outcome.Reason != "" {
		s.metrics.IncrementOutcome(string(outcome.Reason))
	}
	if err != nil {
		if outcome.Reason != "" && !outcome.Allowed {
			s.reportDenial(ctx, from, to, amount, outcome.Reason)
		}
		return nil, err
	}
	s.metrics.AddVolume(receipt.NetAmount)
	return receipt, nil
}

func (s *Service) reportDenial(ctx context.Context, from, to solana.PublicKey, amount uint64, reason rules.Reason) {
	s.logger.InfoContext(ctx, "transfer denied",
		"from", from.String(),
		"to", to.String(),
		"amount", amount,
		"reason", string(reason),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.security == nil {
		return
	}
	ev := audit.NewEvent(ctx, audit.EventTransferDenied, from)
	ev.Subject = from.String()
	ev.Target = to.String()
	ev.Amount = amount
	ev.Decision = "deny"
	ev.Reason = string(reason)
	if err := s.security.Emit(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish transfer denial", "error", err)
	}
}
