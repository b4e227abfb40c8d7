// Package admin serves the operator endpoints: journal verification and the
// recent audit trail. Routes are expected behind the admin token middleware.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"tollgate/internal/ledger"
	"tollgate/internal/platform/metrics"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/httputil"
	"tollgate/pkg/requestcontext"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

type Verifier interface {
	Verify(ctx context.Context) (ledger.Verification, error)
}

type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type SecurityPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Handler struct {
	verifier Verifier
	events   EventLister
	security SecurityPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Handler)

func WithSecurityPublisher(p SecurityPublisher) Option {
	return func(h *Handler) { h.security = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func New(verifier Verifier, events EventLister, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{verifier: verifier, events: events, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger/verify", h.HandleVerifyLedger)
	r.Get("/events", h.HandleListEvents)
}

// HandleVerifyLedger replays the journal. A broken hash chain or a supply
// mismatch is reported as a security event and answered with 500.
func (h *Handler) HandleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.verifier.Verify(ctx)
	if err != nil {
		var br *ledger.ChainBreak
		if errors.As(err, &br) {
			h.metrics.ObserveVerification("broken")
			h.fault(ctx, err.Error())
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvariantViolation, "ledger journal failed verification"))
			return
		}
		h.metrics.ObserveVerification("error")
		h.logger.ErrorContext(ctx, "ledger verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if !v.Conserved() {
		h.metrics.ObserveVerification("broken")
		h.fault(ctx, "supply does not match the sum of balances")
		httputil.WriteJSON(w, http.StatusInternalServerError, toVerificationResponse(v))
		return
	}
	h.metrics.ObserveVerification("ok")
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxEventLimit {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "limit must be between 1 and %d", maxEventLimit))
			return
		}
		limit = n
	}

	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list audit events failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, &EventsListResponse{Events: events, Total: len(events)})
}

func (h *Handler) fault(ctx context.Context, reason string) {
	h.logger.ErrorContext(ctx, "ledger verification fault",
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
	)
	if h.security == nil {
		return
	}
	ev := audit.NewEvent(ctx, audit.EventLedgerVerificationFault, solana.PublicKey{})
	ev.Reason = reason
	if err := h.security.Emit(ctx, ev); err != nil {
		h.logger.ErrorContext(ctx, "emit verification fault", "error", err)
	}
}
