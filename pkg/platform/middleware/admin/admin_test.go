package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequireAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		hash   string
		token  string
		status int
	}{
		{"matching token", string(hash), "s3cret", http.StatusNoContent},
		{"wrong token", string(hash), "guess", http.StatusUnauthorized},
		{"missing token", string(hash), "", http.StatusUnauthorized},
		{"admin disabled", "", "s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
			if tt.token != "" {
				r.Header.Set("X-Admin-Token", tt.token)
			}
			w := httptest.NewRecorder()
			RequireAdminToken(tt.hash, logger)(ok).ServeHTTP(w, r)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
