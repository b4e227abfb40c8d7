// Package handler exposes the governance registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"tollgate/internal/governance/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
	"tollgate/pkg/platform/httputil"
	"tollgate/pkg/requestcontext"
)

// Service is the governance surface the handler drives.
type Service interface {
	Initialize(ctx context.Context, authority solana.PublicKey) (*models.Registry, error)
	GetRegistry(ctx context.Context) (*models.Registry, error)
	BindToken(ctx context.Context, caller, policy solana.PublicKey) (*models.Registry, error)
	SetRequiredApprovals(ctx context.Context, caller solana.PublicKey, n uint8) (*models.Registry, error)
	SetCooldownPeriod(ctx context.Context, caller solana.PublicKey, seconds int64) (*models.Registry, error)
	EmergencyPause(ctx context.Context, caller solana.PublicKey) error
	CreateProposal(ctx context.Context, signer solana.PublicKey, action models.Action) (*models.Proposal, error)
	Approve(ctx context.Context, signer solana.PublicKey, id domain.ProposalID) (*models.Proposal, error)
	Execute(ctx context.Context, signer solana.PublicKey, id domain.ProposalID) (*models.Proposal, error)
	Reject(ctx context.Context, signer solana.PublicKey, id domain.ProposalID, reason string) (*models.Proposal, error)
	GetProposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error)
	ListProposals(ctx context.Context, status models.ProposalStatus, limit int) ([]*models.Proposal, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts governance routes. The router must already authenticate
// the signer.
func (h *Handler) Register(r chi.Router) {
	r.Route("/governance", func(r chi.Router) {
		r.Post("/", h.HandleInitialize)
		r.Get("/", h.HandleGetRegistry)
		r.Post("/token", h.HandleBindToken)
		r.Put("/required-approvals", h.HandleSetRequiredApprovals)
		r.Put("/cooldown", h.HandleSetCooldown)
		r.Post("/pause", h.HandlePause)

		r.Post("/proposals", h.HandleCreateProposal)
		r.Get("/proposals", h.HandleListProposals)
		r.Get("/proposals/{id}", h.HandleGetProposal)
		r.Post("/proposals/{id}/approve", h.HandleApprove)
		r.Post("/proposals/{id}/execute", h.HandleExecute)
		r.Post("/proposals/{id}/reject", h.HandleReject)
	})
}

func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	reg, err := h.service.Initialize(r.Context(), signer)
	if err != nil {
		h.fail(w, r, "initialize governance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRegistryResponse(reg))
}

func (h *Handler) HandleGetRegistry(w http.ResponseWriter, r *http.Request) {
	reg, err := h.service.GetRegistry(r.Context())
	if err != nil {
		h.fail(w, r, "get registry", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistryResponse(reg))
}

func (h *Handler) HandleBindToken(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[BindTokenRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	reg, err := h.service.BindToken(ctx, signer, req.policy)
	if err != nil {
		h.fail(w, r, "bind token", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistryResponse(reg))
}

func (h *Handler) HandleSetRequiredApprovals(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetRequiredApprovalsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	reg, err := h.service.SetRequiredApprovals(ctx, signer, uint8(req.RequiredApprovals))
	if err != nil {
		h.fail(w, r, "set required approvals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistryResponse(reg))
}

func (h *Handler) HandleSetCooldown(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetCooldownRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	reg, err := h.service.SetCooldownPeriod(ctx, signer, req.Seconds)
	if err != nil {
		h.fail(w, r, "set cooldown", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistryResponse(reg))
}

func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	if err := h.service.EmergencyPause(r.Context(), signer); err != nil {
		h.fail(w, r, "emergency pause", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCreateProposal(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateProposalRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.CreateProposal(ctx, signer, req.action)
	if err != nil {
		h.fail(w, r, "create proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProposalResponse(p))
}

func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status models.ProposalStatus
	if raw := q.Get("status"); raw != "" {
		parsed, err := models.ParseProposalStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	list, err := h.service.ListProposals(r.Context(), status, limit)
	if err != nil {
		h.fail(w, r, "list proposals", err)
		return
	}
	resp := ProposalListResponse{Proposals: make([]ProposalResponse, 0, len(list))}
	for _, p := range list {
		resp.Proposals = append(resp.Proposals, toProposalResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetProposal(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProposalResponse(p))
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.proposalTransition(w, r, "approve proposal", h.service.Approve)
}

func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	h.proposalTransition(w, r, "execute proposal", h.service.Execute)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Reject(ctx, signer, id, req.Reason)
	if err != nil {
		h.fail(w, r, "reject proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProposalResponse(p))
}

func (h *Handler) proposalTransition(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, solana.PublicKey, domain.ProposalID) (*models.Proposal, error)) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	p, err := fn(r.Context(), signer, id)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProposalResponse(p))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"signer", requestcontext.Signer(ctx).String(),
		"error", err,
	}
	if dErrors.GetCode(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed", attrs...)
	} else {
		h.logger.InfoContext(ctx, op+" refused", attrs...)
	}
	httputil.WriteError(w, err)
}

func requireSigner(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	signer := requestcontext.Signer(r.Context())
	if signer.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return solana.PublicKey{}, false
	}
	return signer, true
}

func proposalID(w http.ResponseWriter, r *http.Request) (domain.ProposalID, bool) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}
