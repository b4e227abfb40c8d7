package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate/pkg/requestcontext"
)

type recordingChecker struct {
	result *Result
	err    error
	key    string
	class  Class
}

func (c *recordingChecker) Check(_ context.Context, key string, class Class) (*Result, error) {
	c.key, c.class = key, class
	return c.result, c.err
}

func serve(t *testing.T, checker Checker, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Middleware(checker, logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_KeysBySigner(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	checker := &recordingChecker{result: &Result{Allowed: true, Limit: 60, Remaining: 59, ResetAt: time.Unix(1700000000, 0)}}

	req := httptest.NewRequest(http.MethodPost, "/v1/token/transfers", nil)
	req = req.WithContext(requestcontext.WithSigner(req.Context(), signer))
	rec := serve(t, checker, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "signer:"+signer.String(), checker.key)
	assert.Equal(t, ClassWrite, checker.class)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Status"))
}

func TestMiddleware_FallsBackToClientIP(t *testing.T) {
	checker := &recordingChecker{result: &Result{Allowed: true, Limit: 1, Degraded: true}}

	req := httptest.NewRequest(http.MethodGet, "/v1/governance", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "10.0.0.7", "", "unknown"))
	rec := serve(t, checker, req)

	assert.Equal(t, "ip:10.0.0.7", checker.key)
	assert.Equal(t, ClassRead, checker.class)
	assert.Equal(t, "degraded", rec.Header().Get("X-RateLimit-Status"))
}

func TestMiddleware_Rejects(t *testing.T) {
	checker := &recordingChecker{result: &Result{Allowed: false, Limit: 1, RetryAfter: 1500 * time.Millisecond}}

	rec := serve(t, checker, httptest.NewRequest(http.MethodPost, "/v1/token/burn", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body["error"])
}

func TestMiddleware_FailsOpen(t *testing.T) {
	checker := &recordingChecker{err: errors.New("redis down")}

	rec := serve(t, checker, httptest.NewRequest(http.MethodGet, "/v1/governance", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
