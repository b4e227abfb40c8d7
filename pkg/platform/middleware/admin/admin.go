package admin

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	dErrors "tollgate/pkg/domain-errors"
	"tollgate/pkg/platform/httputil"
	"tollgate/pkg/requestcontext"
)

// RequireAdminToken checks X-Admin-Token against a bcrypt hash. An empty
// hash disables every admin endpoint.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	hash := []byte(tokenHash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if len(hash) == 0 || token == "" || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
