// Package requesttime pins one "now" per request. Governance cooldowns,
// audit timestamps and record times all read it through requestcontext.Now.
package requesttime

import (
	"net/http"
	"time"

	"tollgate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
