// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services and the CLI depend on it directly.
//
// Usage in services (read values):
//
//	signer := requestcontext.Signer(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithSigner(ctx, wallet.PublicKey())
package requestcontext

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

type (
	signerKey      struct{}
	tokenIDKey     struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	clientKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// -----------------------------------------------------------------------------
// Signer (authenticated wallet)
// -----------------------------------------------------------------------------

// Signer retrieves the authenticated wallet address. The zero address means
// the request was not authenticated.
func Signer(ctx context.Context) solana.PublicKey {
	if pk, ok := ctx.Value(signerKey{}).(solana.PublicKey); ok {
		return pk
	}
	return solana.PublicKey{}
}

// WithSigner injects the authenticated wallet address.
func WithSigner(ctx context.Context, signer solana.PublicKey) context.Context {
	return context.WithValue(ctx, signerKey{}, signer)
}

// TokenID is the jti of the bearer token that authenticated the request.
func TokenID(ctx context.Context) string {
	if v, ok := ctx.Value(tokenIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDKey{}, jti)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// Client is a short description of the calling software ("govctl/1.0",
// "Chrome 120", "bot").
func Client(ctx context.Context) string {
	if c, ok := ctx.Value(clientKey{}).(string); ok {
		return c
	}
	return ""
}

// WithClientMetadata injects client IP, raw User-Agent and the parsed client
// description into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, client string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	ctx = context.WithValue(ctx, clientKey{}, client)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Governance cooldowns are
// evaluated against this value, so tests move time forward with it.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
