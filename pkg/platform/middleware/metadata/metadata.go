// Package metadata records who is calling: client IP, raw User-Agent and a
// short client description parsed from it.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"tollgate/pkg/requestcontext"
)

// ClientMetadata stores client metadata in the request context. Apply it
// early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DescribeClient(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeClient turns a User-Agent into "browser version", "bot" or the
// product token of non-browser clients such as govctl.
func DescribeClient(raw string) string {
	if raw == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}
	if name, version := ua.Browser(); strings.HasPrefix(raw, "Mozilla/") && name != "" {
		if version == "" {
			return name
		}
		return name + " " + version
	}
	product := raw
	if i := strings.IndexByte(product, ' '); i >= 0 {
		product = product[:i]
	}
	return product
}

// ClientIPFromRequest extracts the client IP, honouring X-Forwarded-For and
// X-Real-IP set by proxies.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
