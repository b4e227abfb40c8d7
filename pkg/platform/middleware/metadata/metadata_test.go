package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tollgate/pkg/requestcontext"
)

func TestDescribeClient(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", "unknown"},
		{"govctl/0.3.0", "govctl/0.3.0"},
		{"curl/8.4.0", "curl/8.4.0"},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DescribeClient(tt.ua), tt.ua)
	}
}

func TestClientMetadata(t *testing.T) {
	var ip, client string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		client = requestcontext.Client(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("User-Agent", "govctl/0.3.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "203.0.113.9", ip)
	assert.Equal(t, "govctl/0.3.0", client)
}
