package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	dErrors "tollgate/pkg/domain-errors"
	"tollgate/pkg/platform/httputil"
	"tollgate/pkg/requestcontext"
)

// Checker is the part of Limiter the middleware needs.
type Checker interface {
	Check(ctx context.Context, key string, class Class) (*Result, error)
}

// Middleware limits each caller by signer when the request is authenticated,
// and by client IP otherwise. GET and HEAD count as reads. Limiter errors
// let the request through.
func Middleware(limiter Checker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := callerKey(ctx)

			result, err := limiter.Check(ctx, key, classFor(r.Method))
			if err != nil {
				logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				logger.WarnContext(ctx, "rate limit exceeded",
					"caller", key,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(ctx context.Context) string {
	if signer := requestcontext.Signer(ctx); !signer.IsZero() {
		return "signer:" + signer.String()
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func classFor(method string) Class {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ClassRead
	default:
		return ClassWrite
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

func retryAfterSeconds(result *Result) int {
	return max(1, int(math.Ceil(result.RetryAfter.Seconds())))
}
