package testutil

import (
	"net/http"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/requestcontext"
)

// SignerHeader carries the caller address in handler tests in place of a
// signed bearer token.
const SignerHeader = "X-Test-Signer"

// WithSigner adds the authenticated signer to the request context, as the
// signer middleware would.
func WithSigner(req *http.Request, signer solana.PublicKey) *http.Request {
	return req.WithContext(requestcontext.WithSigner(req.Context(), signer))
}

// SignerFromHeader is a stand-in for the signer middleware that trusts
// SignerHeader. Requests without the header stay unauthenticated.
func SignerFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(SignerHeader); raw != "" {
			if pk, err := solana.PublicKeyFromBase58(raw); err == nil {
				r = WithSigner(r, pk)
			}
		}
		next.ServeHTTP(w, r)
	})
}
