package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate/internal/auth/signer"
	"tollgate/internal/ledger"
	"tollgate/internal/platform/config"
	"tollgate/pkg/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func newKey(t *testing.T) (path, pubkey string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "signer.json")
	out, err := execute(t, "keygen", "--out", path)
	require.NoError(t, err)
	return path, strings.TrimSpace(out)
}

func TestKeygen(t *testing.T) {
	path, pubkey := newKey(t)

	key, err := readKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, pubkey, key.PublicKey().String())

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		_, err := execute(t, "keygen", "--out", path)
		require.Error(t, err)

		out, err := execute(t, "keygen", "--out", path, "--force")
		require.NoError(t, err)
		assert.NotEqual(t, pubkey, strings.TrimSpace(out))
	})
}

func TestTokenVerifiesAgainstServerVerifier(t *testing.T) {
	path, pubkey := newKey(t)

	out, err := execute(t, "token", "--key", path, "--audience", "tollgate-test")
	require.NoError(t, err)

	claims, err := signer.NewVerifier("tollgate-test").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, pubkey, claims.Signer.String())
	assert.NotEmpty(t, claims.JTI)

	t.Run("ttl above the server cap is refused", func(t *testing.T) {
		_, err := execute(t, "token", "--key", path, "--ttl", "10m")
		require.Error(t, err)
	})

	t.Run("missing key file", func(t *testing.T) {
		_, err := execute(t, "token", "--key", filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})
}

func TestCall(t *testing.T) {
	path, pubkey := newKey(t)

	var gotAuth, gotBody, gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		if r.URL.Path == "/v1/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not_found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	t.Run("sends a signed request", func(t *testing.T) {
		out, err := execute(t, "call", "post", "v1/governance/proposals",
			"--key", path, "--server", srv.URL, "--data", `{"kind":"add_signer"}`)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "/v1/governance/proposals", gotPath)
		assert.JSONEq(t, `{"kind":"add_signer"}`, gotBody)
		assert.Contains(t, out, "200 OK")
		assert.Contains(t, out, `"ok": true`)

		claims, err := signer.NewVerifier(defaultAudience).Verify(strings.TrimPrefix(gotAuth, "Bearer "))
		require.NoError(t, err)
		assert.Equal(t, pubkey, claims.Signer.String())
	})

	t.Run("error status fails the command", func(t *testing.T) {
		out, err := execute(t, "call", "GET", "/v1/missing", "--key", path, "--server", srv.URL)
		require.Error(t, err)
		assert.Contains(t, out, "404")
	})

	t.Run("invalid body is rejected locally", func(t *testing.T) {
		gotPath = ""
		_, err := execute(t, "call", "POST", "/v1/token/transfers", "--key", path, "--server", srv.URL, "--data", "{")
		require.Error(t, err)
		assert.Empty(t, gotPath)
	})
}

func TestAddress(t *testing.T) {
	programs := ledger.Programs{
		Governance: domain.MustParseAddress(config.DefaultGovernanceProgram),
		Token:      domain.MustParseAddress(config.DefaultTokenProgram),
	}
	registry, err := programs.GovernanceAddress()
	require.NoError(t, err)
	policy, err := programs.PolicyAddress()
	require.NoError(t, err)
	proposal, err := programs.ProposalAddress(7)
	require.NoError(t, err)

	out, err := execute(t, "address", "--proposal", "7")
	require.NoError(t, err)
	assert.Contains(t, out, registry.String())
	assert.Contains(t, out, policy.String())
	assert.Contains(t, out, proposal.String())

	t.Run("same program twice is invalid", func(t *testing.T) {
		_, err := execute(t, "address", "--token-program", config.DefaultGovernanceProgram)
		require.Error(t, err)
	})
}
