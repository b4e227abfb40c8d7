package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tollgate/internal/ledger"
	"tollgate/internal/metadata"
	"tollgate/internal/rules"
	"tollgate/internal/token/metrics"
	"tollgate/internal/token/models"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
)

// Store persists the policy state inside a ledger transaction.
type Store interface {
	PolicyAddress() solana.PublicKey
	FindPolicy(ctx context.Context, tx ledger.Tx) (*models.PolicyState, error)
	CreatePolicy(ctx context.Context, tx ledger.Tx, p *models.PolicyState) error
	SavePolicy(ctx context.Context, tx ledger.Tx, p *models.PolicyState) error
}

// Governance is the registry surface the token program consults from
// inside its transactions.
type Governance interface {
	TransferLists(ctx context.Context, tx ledger.Tx, policy solana.PublicKey) (rules.Lists, error)
	RevokeUpdateAuthority(ctx context.Context, tx ledger.Tx, registry, caller solana.PublicKey) error
}

// SecurityPublisher receives events for refused operations. Denied transfers
// never commit a ledger transaction, so their events bypass the outbox.
type SecurityPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs policy initialization, transfers, supply changes and
// authority revocation.
type Service struct {
	ledger     ledger.Ledger
	store      Store
	governance Governance
	metadata   metadata.Registry
	security   SecurityPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSecurityPublisher(p SecurityPublisher) Option {
	return func(s *Service) {
		s.security = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(l ledger.Ledger, store Store, governance Governance, md metadata.Registry, opts ...Option) *Service {
	s := &Service{
		ledger:     l,
		store:      store,
		governance: governance,
		metadata:   md,
		logger:     slog.Default(),
		tracer:     otel.Tracer("tollgate/token"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) run(ctx context.Context, op string, caller solana.PublicKey, fn func(ctx context.Context, tx ledger.Tx) error) error {
	ctx, span := s.tracer.Start(ctx, "token."+op,
		trace.WithAttributes(attribute.String("caller", caller.String())))
	defer span.End()

	var rec *ledger.Recorder
	err := s.ledger.Execute(ctx, func(ctx context.Context, tx ledger.Tx) error {
		rec = ledger.NewRecorder(tx)
		return fn(ctx, rec)
	})
	if err != nil {
		err = translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.GetCode(err)))
		if dErrors.GetCode(err) == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "token operation failed", "operation", op, "error", err)
		}
		return err
	}
	for _, ev := range rec.Events() {
		logAudit(ctx, s.logger, ev)
	}
	return nil
}

func (s *Service) loadPolicy(ctx context.Context, tx ledger.Tx) (*models.PolicyState, error) {
	return loadPolicy(ctx, tx, s.store)
}

func loadPolicy(ctx context.Context, tx ledger.Tx, store Store) (*models.PolicyState, error) {
	p, err := store.FindPolicy(ctx, tx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "token policy is not initialized")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token policy")
	}
	return p, nil
}

func savePolicy(ctx context.Context, tx ledger.Tx, store Store, p *models.PolicyState) error {
	if err := store.SavePolicy(ctx, tx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save token policy")
	}
	return nil
}

func logAudit(ctx context.Context, logger *slog.Logger, ev audit.Event) {
	args := []any{"event", ev.Action, "log_type", "audit", "actor", ev.Actor}
	if ev.Subject != "" {
		args = append(args, "subject", ev.Subject)
	}
	if ev.Target != "" {
		args = append(args, "target", ev.Target)
	}
	if ev.Amount != 0 {
		args = append(args, "amount", ev.Amount)
	}
	if ev.RequestID != "" {
		args = append(args, "request_id", ev.RequestID)
	}
	logger.InfoContext(ctx, ev.Action, args...)
}

// metadataError maps collaborator failures to domain codes.
func metadataError(err error) error {
	switch {
	case errors.Is(err, metadata.ErrRevoked):
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "metadata update authority has been revoked")
	case errors.Is(err, metadata.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "token metadata not found")
	case errors.Is(err, metadata.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "token metadata already exists")
	case errors.Is(err, metadata.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "metadata registry unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "metadata registry call failed")
	}
}

func translate(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger transaction timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger transaction failed")
	}
}
