package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tollgate/internal/admin"
	"tollgate/internal/auth/nonce"
	"tollgate/internal/auth/signer"
	govhandler "tollgate/internal/governance/handler"
	"tollgate/internal/ledger"
	"tollgate/internal/platform/config"
	"tollgate/internal/platform/metrics"
	"tollgate/internal/ratelimit"
	tokhandler "tollgate/internal/token/handler"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/audit/publisher"
	"tollgate/pkg/platform/httputil"
	adminmw "tollgate/pkg/platform/middleware/admin"
	authmw "tollgate/pkg/platform/middleware/auth"
	metadatamw "tollgate/pkg/platform/middleware/metadata"
	"tollgate/pkg/platform/middleware/request"
	"tollgate/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	cfg        config.Config
	logger     *slog.Logger
	governance govhandler.Service
	token      tokhandler.Service
	ledger     ledger.Ledger
	events     audit.Store
	security   *publisher.Publisher
	verifier   *signer.Verifier
	nonces     nonce.Store
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	// redis is nil when nonces and rate limits live in process.
	redis healthChecker
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadatamw.ClientMetadata)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if d.redis != nil {
			if err := d.redis.Health(req.Context()); err != nil {
				d.logger.WarnContext(req.Context(), "health check failed", "dependency", "redis", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(authmw.RequireSigner(d.verifier, d.nonces, d.logger, authmw.WithSecurityPublisher(d.security)))
		if d.limiter != nil {
			r.Use(ratelimit.Middleware(d.limiter, d.logger))
		}
		r.Use(request.Logger(d.logger))
		govhandler.New(d.governance, d.logger).Register(r)
		tokhandler.New(d.token, d.logger).Register(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.cfg.Auth.AdminTokenHash, d.logger))
		r.Use(request.Logger(d.logger))
		admin.New(d.ledger, d.events, d.logger,
			admin.WithSecurityPublisher(d.security),
			admin.WithMetrics(d.metrics),
		).Register(r)
	})

	return r
}
