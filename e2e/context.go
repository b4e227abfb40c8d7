package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/auth/signer"
)

// TestContext holds per-scenario state: named wallets, the last response and
// values remembered between steps.
type TestContext struct {
	BaseURL    string
	Audience   string
	AdminToken string
	HTTPClient *http.Client

	wallets      map[string]solana.PrivateKey
	remembered   map[string]string
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]interface{}
}

func NewTestContext() *TestContext {
	baseURL := os.Getenv("TOLLGATE_E2E_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	audience := os.Getenv("TOLLGATE_E2E_AUDIENCE")
	if audience == "" {
		audience = "tollgate"
	}
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Audience:   audience,
		AdminToken: os.Getenv("TOLLGATE_E2E_ADMIN_TOKEN"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state. Wallets live for the whole run because the
// registry and policy are singletons that only their first authority can
// drive.
func (tc *TestContext) Reset() {
	if tc.wallets == nil {
		tc.wallets = make(map[string]solana.PrivateKey)
	}
	tc.remembered = make(map[string]string)
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastResponse = nil
}

// Wallet returns the key for name, generating it on first use.
func (tc *TestContext) Wallet(name string) (solana.PrivateKey, error) {
	if key, ok := tc.wallets[name]; ok {
		return key, nil
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	tc.wallets[name] = key
	return key, nil
}

// Address resolves name to a base58 address: a remembered value, a wallet,
// or the literal if it already parses as one.
func (tc *TestContext) Address(name string) (string, error) {
	if v, ok := tc.remembered[name]; ok {
		return v, nil
	}
	if _, err := solana.PublicKeyFromBase58(name); err == nil {
		return name, nil
	}
	key, err := tc.Wallet(name)
	if err != nil {
		return "", err
	}
	return key.PublicKey().String(), nil
}

func (tc *TestContext) Remember(name, value string) { tc.remembered[name] = value }

func (tc *TestContext) Recall(name string) (string, error) {
	v, ok := tc.remembered[name]
	if !ok {
		return "", fmt.Errorf("nothing remembered as %q", name)
	}
	return v, nil
}

// Send issues a request signed by the named wallet. An empty wallet sends the
// request unauthenticated.
func (tc *TestContext) Send(method, path, wallet string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet != "" {
		key, err := tc.Wallet(wallet)
		if err != nil {
			return err
		}
		tok, err := signer.Issue(key, tc.Audience, time.Minute, time.Now())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if strings.HasPrefix(path, "/admin") && tc.AdminToken != "" {
		req.Header.Set("X-Admin-Token", tc.AdminToken)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		var parsed map[string]interface{}
		if json.Unmarshal(tc.lastBody, &parsed) == nil {
			tc.lastResponse = parsed
		}
	}
	return nil
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastBody() string { return string(tc.lastBody) }

// ResponseField returns a top-level field of the last JSON object response.
func (tc *TestContext) ResponseField(field string) (interface{}, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("last response was not a JSON object: %s", tc.lastBody)
	}
	v, ok := tc.lastResponse[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// ResponseString renders a field for comparison. JSON numbers print without
// a fractional part.
func (tc *TestContext) ResponseString(field string) (string, error) {
	v, err := tc.ResponseField(field)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return fmt.Sprintf("%.0f", t), nil
	default:
		return fmt.Sprint(t), nil
	}
}
