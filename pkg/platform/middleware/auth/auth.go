// Package auth authenticates requests with wallet-signed bearer tokens.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tollgate/internal/auth/signer"
	dErrors "tollgate/pkg/domain-errors"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/httputil"
	"tollgate/pkg/requestcontext"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*signer.Claims, error)
}

// NonceStore claims a token id once for the token's lifetime.
type NonceStore interface {
	Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// SecurityPublisher receives authentication failures.
type SecurityPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type config struct {
	security SecurityPublisher
}

type Option func(*config)

func WithSecurityPublisher(p SecurityPublisher) Option {
	return func(c *config) { c.security = p }
}

// RequireSigner rejects requests without a valid, unreplayed signer token
// and stores the signer and token id in the request context.
func RequireSigner(verifier TokenVerifier, nonces NonceStore, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				cfg.report(ctx, audit.EventAuthFailed, "", err.Error())
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			fresh, err := nonces.Claim(ctx, claims.JTI, claims.TTL())
			if err != nil {
				logger.ErrorContext(ctx, "failed to check token replay",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to validate token"))
				return
			}
			if !fresh {
				logger.WarnContext(ctx, "unauthorized access - token replayed",
					"signer", claims.Signer.String(),
					"jti", claims.JTI,
					"request_id", requestID,
				)
				cfg.report(ctx, audit.EventTokenReplayRejected, claims.Signer.String(), claims.JTI)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token already used"))
				return
			}

			ctx = requestcontext.WithSigner(ctx, claims.Signer)
			ctx = requestcontext.WithTokenID(ctx, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (c *config) report(ctx context.Context, action audit.AuditEvent, subject, reason string) {
	if c.security == nil {
		return
	}
	ev := audit.NewEvent(ctx, action, requestcontext.Signer(ctx))
	ev.Subject = subject
	ev.Decision = "deny"
	ev.Reason = reason
	_ = c.security.Emit(ctx, ev)
}
