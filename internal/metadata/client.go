package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	contract "tollgate/contracts/metadata"
)

const maxResponseBytes = 1 << 20

// Client is the HTTP implementation of Registry.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Create(ctx context.Context, token Token) error {
	body := contract.CreateRequest{
		Mint:            token.Mint.String(),
		Name:            token.Name,
		Symbol:          token.Symbol,
		URI:             token.URI,
		UpdateAuthority: token.UpdateAuthority.String(),
	}
	return c.do(ctx, http.MethodPost, contract.PathTokens, body, nil)
}

func (c *Client) Update(ctx context.Context, mint solana.PublicKey, name, symbol, uri string) error {
	body := contract.UpdateRequest{Name: name, Symbol: symbol, URI: uri}
	return c.do(ctx, http.MethodPut, tokenPath(contract.PathToken, mint), body, nil)
}

func (c *Client) ClearUpdateAuthority(ctx context.Context, mint solana.PublicKey) error {
	return c.do(ctx, http.MethodDelete, tokenPath(contract.PathTokenRevoke, mint), nil, nil)
}

func (c *Client) Get(ctx context.Context, mint solana.PublicKey) (*Token, error) {
	var wire contract.Token
	if err := c.do(ctx, http.MethodGet, tokenPath(contract.PathToken, mint), nil, &wire); err != nil {
		return nil, err
	}
	return fromWire(wire)
}

func tokenPath(pattern string, mint solana.PublicKey) string {
	return strings.Replace(pattern, "{mint}", mint.String(), 1)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode metadata request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Contract-Version", contract.Version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "metadata registry unreachable", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode metadata response: %w", err)
		}
	}
	return nil
}

func parseError(status int, body []byte) error {
	var wire contract.ErrorResponse
	_ = json.Unmarshal(body, &wire)
	switch {
	case wire.Error == contract.ErrCodeRevoked:
		return ErrRevoked
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	default:
		return errors.New("metadata registry rejected request: " + wire.Description)
	}
}

func fromWire(w contract.Token) (*Token, error) {
	mint, err := solana.PublicKeyFromBase58(w.Mint)
	if err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	t := &Token{Mint: mint, Name: w.Name, Symbol: w.Symbol, URI: w.URI, Mutable: w.Mutable}
	if w.UpdateAuthority != "" {
		t.UpdateAuthority, err = solana.PublicKeyFromBase58(w.UpdateAuthority)
		if err != nil {
			return nil, fmt.Errorf("decode update authority: %w", err)
		}
	}
	return t, nil
}
