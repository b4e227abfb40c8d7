package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tollgate/internal/governance/metrics"
	"tollgate/internal/governance/models"
	"tollgate/internal/ledger"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
)

// Store persists governance records inside a ledger transaction.
type Store interface {
	RegistryAddress() solana.PublicKey
	ProposalAddress(id domain.ProposalID) (solana.PublicKey, error)
	FindRegistry(ctx context.Context, tx ledger.Tx) (*models.Registry, error)
	CreateRegistry(ctx context.Context, tx ledger.Tx, reg *models.Registry) error
	SaveRegistry(ctx context.Context, tx ledger.Tx, reg *models.Registry) error
	FindProposal(ctx context.Context, tx ledger.Tx, id domain.ProposalID) (*models.Proposal, error)
	CreateProposal(ctx context.Context, tx ledger.Tx, p *models.Proposal) error
	SaveProposal(ctx context.Context, tx ledger.Tx, p *models.Proposal) error
	ListProposals(ctx context.Context, tx ledger.Tx, reg *models.Registry, status models.ProposalStatus, limit int) ([]*models.Proposal, error)
}

// TokenPolicy is the token program's governed surface. Every call runs in
// the caller's ledger transaction and is authorized by the capability.
type TokenPolicy interface {
	// PolicyGovernance returns the registry address recorded in the policy
	// state at addr.
	PolicyGovernance(ctx context.Context, tx ledger.Tx, addr solana.PublicKey) (solana.PublicKey, error)
	ApplyPause(ctx context.Context, tx ledger.Tx, capability domain.Capability, paused bool) error
	SetProtocolAddress(ctx context.Context, tx ledger.Tx, capability domain.Capability, role domain.ProtocolRole, account solana.PublicKey) error
	UpdateMetadata(ctx context.Context, tx ledger.Tx, capability domain.Capability, name, symbol, uri string) error
}

// Service runs the governance registry: authority-direct configuration,
// the proposal lifecycle and the read side.
type Service struct {
	ledger  ledger.Ledger
	store   Store
	policy  TokenPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(l ledger.Ledger, store Store, policy TokenPolicy, opts ...Option) *Service {
	s := &Service{
		ledger: l,
		store:  store,
		policy: policy,
		logger: slog.Default(),
		tracer: otel.Tracer("tollgate/governance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run executes fn in a ledger transaction under a span and records the
// operation duration.
func (s *Service) run(ctx context.Context, op string, caller solana.PublicKey, fn func(ctx context.Context, tx ledger.Tx) error) error {
	start := time.Now()
	defer s.metrics.ObserveOperation(op, start)

	ctx, span := s.tracer.Start(ctx, "governance."+op,
		trace.WithAttributes(attribute.String("caller", caller.String())))
	defer span.End()

	var rec *ledger.Recorder
	err := s.ledger.Execute(ctx, func(ctx context.Context, tx ledger.Tx) error {
		rec = ledger.NewRecorder(tx)
		return fn(ctx, rec)
	})
	if err == nil && rec != nil {
		for _, ev := range rec.Events() {
			s.logAudit(ctx, ev)
		}
	}
	if err != nil {
		err = translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.GetCode(err)))
		if dErrors.GetCode(err) == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "governance operation failed", "operation", op, "error", err)
		}
	}
	return err
}

func (s *Service) loadRegistry(ctx context.Context, tx ledger.Tx) (*models.Registry, error) {
	reg, err := s.store.FindRegistry(ctx, tx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "governance registry is not initialized")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load governance registry")
	}
	return reg, nil
}

func (s *Service) saveRegistry(ctx context.Context, tx ledger.Tx, reg *models.Registry) error {
	if err := reg.CheckInvariants(); err != nil {
		return err
	}
	if err := s.store.SaveRegistry(ctx, tx, reg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save governance registry")
	}
	return nil
}

func (s *Service) loadProposal(ctx context.Context, tx ledger.Tx, id domain.ProposalID) (*models.Proposal, error) {
	p, err := s.store.FindProposal(ctx, tx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "proposal %s not found", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}

func (s *Service) logAudit(ctx context.Context, ev audit.Event) {
	args := []any{"event", ev.Action, "log_type", "audit", "actor", ev.Actor}
	if ev.Subject != "" {
		args = append(args, "subject", ev.Subject)
	}
	if ev.ProposalID != "" {
		args = append(args, "proposal_id", ev.ProposalID)
	}
	if ev.RequestID != "" {
		args = append(args, "request_id", ev.RequestID)
	}
	s.logger.InfoContext(ctx, ev.Action, args...)
}

// translate maps leftover infrastructure errors to domain codes. Domain
// errors pass through untouched.
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
