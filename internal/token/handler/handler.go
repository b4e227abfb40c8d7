// Package handler exposes the token policy over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"tollgate/internal/token/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
	"tollgate/pkg/platform/httputil"
	"tollgate/pkg/requestcontext"
)

// Service is the token surface the handler drives.
type Service interface {
	InitializePolicy(ctx context.Context, params models.InitParams) (*models.PolicyState, error)
	GetPolicy(ctx context.Context) (*models.PolicyState, error)
	Supply(ctx context.Context) (uint64, error)
	Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64) (*models.Transfer, error)
	Mint(ctx context.Context, caller, to solana.PublicKey, amount uint64) (*models.Balance, error)
	Burn(ctx context.Context, owner solana.PublicKey, amount uint64) (*models.Balance, error)
	RevokeAuthorities(ctx context.Context, caller solana.PublicKey) (*models.PolicyState, error)
	BalanceOf(ctx context.Context, owner solana.PublicKey) (*models.Balance, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/token", func(r chi.Router) {
		r.Post("/policy", h.HandleInitializePolicy)
		r.Get("/policy", h.HandleGetPolicy)
		r.Post("/transfers", h.HandleTransfer)
		r.Post("/mint", h.HandleMint)
		r.Post("/burn", h.HandleBurn)
		r.Post("/revoke-authorities", h.HandleRevokeAuthorities)
		r.Get("/balances/{owner}", h.HandleBalance)
	})
}

func (h *Handler) HandleInitializePolicy(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[InitializePolicyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	params := req.params
	params.Authority = signer

	p, err := h.service.InitializePolicy(ctx, params)
	if err != nil {
		h.fail(w, r, "initialize policy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPolicyResponse(p, 0))
}

func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.GetPolicy(ctx)
	if err != nil {
		h.fail(w, r, "get policy", err)
		return
	}
	supply, err := h.service.Supply(ctx)
	if err != nil {
		h.fail(w, r, "read supply", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(p, supply))
}

// HandleTransfer moves tokens from the signer. Denials come back as 4xx
// with the gate that refused the transfer as the error code.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	start := time.Now()
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	receipt, err := h.service.Transfer(ctx, signer, req.to, req.Amount)
	if err != nil {
		h.fail(w, r, "transfer", err)
		return
	}
	h.logger.InfoContext(ctx, "transfer settled",
		"request_id", requestcontext.RequestID(ctx),
		"from", signer.String(),
		"to", req.to.String(),
		"amount", receipt.NetAmount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, toTransferResponse(receipt))
}

func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.Mint(ctx, signer, req.to, req.Amount)
	if err != nil {
		h.fail(w, r, "mint", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBalanceResponse(b))
}

func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[BurnRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.Burn(ctx, signer, req.Amount)
	if err != nil {
		h.fail(w, r, "burn", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBalanceResponse(b))
}

func (h *Handler) HandleRevokeAuthorities(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	p, err := h.service.RevokeAuthorities(r.Context(), signer)
	if err != nil {
		h.fail(w, r, "revoke authorities", err)
		return
	}
	h.logger.WarnContext(r.Context(), "token authorities revoked",
		"request_id", requestcontext.RequestID(r.Context()),
		"caller", signer.String(),
		"policy", p.Address.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(p, 0))
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.BalanceOf(r.Context(), owner)
	if err != nil {
		h.fail(w, r, "balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBalanceResponse(b))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.GetCode(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
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
