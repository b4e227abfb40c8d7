package metadata_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	contract "tollgate/contracts/metadata"
	"tollgate/internal/metadata"
)

// registryServer exposes a Memory registry over the wire contract.
func registryServer(backing *metadata.Memory) http.Handler {
	r := chi.NewRouter()
	writeErr := func(w http.ResponseWriter, err error) {
		status, code := http.StatusBadRequest, contract.ErrCodeInvalid
		switch {
		case errors.Is(err, metadata.ErrNotFound):
			status, code = http.StatusNotFound, contract.ErrCodeNotFound
		case errors.Is(err, metadata.ErrConflict):
			status, code = http.StatusConflict, contract.ErrCodeConflict
		case errors.Is(err, metadata.ErrRevoked):
			status, code = http.StatusForbidden, contract.ErrCodeRevoked
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(contract.ErrorResponse{Error: code})
	}
	mintParam := func(r *http.Request) solana.PublicKey {
		return solana.MustPublicKeyFromBase58(chi.URLParam(r, "mint"))
	}

	r.Post(contract.PathTokens, func(w http.ResponseWriter, r *http.Request) {
		var req contract.CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		err := backing.Create(r.Context(), metadata.Token{
			Mint:            solana.MustPublicKeyFromBase58(req.Mint),
			Name:            req.Name,
			Symbol:          req.Symbol,
			URI:             req.URI,
			UpdateAuthority: solana.MustPublicKeyFromBase58(req.UpdateAuthority),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	r.Get(contract.PathToken, func(w http.ResponseWriter, r *http.Request) {
		t, err := backing.Get(r.Context(), mintParam(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(contract.Token{
			Mint: t.Mint.String(), Name: t.Name, Symbol: t.Symbol, URI: t.URI,
			UpdateAuthority: t.UpdateAuthority.String(), Mutable: t.Mutable,
		})
	})
	r.Put(contract.PathToken, func(w http.ResponseWriter, r *http.Request) {
		var req contract.UpdateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if err := backing.Update(r.Context(), mintParam(r), req.Name, req.Symbol, req.URI); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete(contract.PathTokenRevoke, func(w http.ResponseWriter, r *http.Request) {
		if err := backing.ClearUpdateAuthority(r.Context(), mintParam(r)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/broken/v1/tokens/{mint}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	return r
}

type ClientSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *metadata.Client
	mint      solana.PublicKey
	authority solana.PublicKey
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.server = httptest.NewServer(registryServer(metadata.NewMemory()))
	s.client = metadata.NewClient(s.server.URL, time.Second)
	s.mint = solana.NewWallet().PublicKey()
	s.authority = solana.NewWallet().PublicKey()
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) create() {
	err := s.client.Create(context.Background(), metadata.Token{
		Mint: s.mint, Name: "Tollgate", Symbol: "TOLL", UpdateAuthority: s.authority,
	})
	s.Require().NoError(err)
}

func (s *ClientSuite) TestCreateAndGet() {
	s.create()

	got, err := s.client.Get(context.Background(), s.mint)
	s.Require().NoError(err)
	s.Equal("Tollgate", got.Name)
	s.Equal("TOLL", got.Symbol)
	s.Equal(s.authority, got.UpdateAuthority)
	s.True(got.Mutable)

	s.ErrorIs(s.client.Create(context.Background(), metadata.Token{Mint: s.mint, UpdateAuthority: s.authority}), metadata.ErrConflict)
}

func (s *ClientSuite) TestUpdateUntilRevoked() {
	s.create()
	ctx := context.Background()

	s.Require().NoError(s.client.Update(ctx, s.mint, "Tollgate v2", "TOLL", "https://example.test/toll.json"))
	got, err := s.client.Get(ctx, s.mint)
	s.Require().NoError(err)
	s.Equal("Tollgate v2", got.Name)

	s.Require().NoError(s.client.ClearUpdateAuthority(ctx, s.mint))
	s.ErrorIs(s.client.Update(ctx, s.mint, "x", "y", ""), metadata.ErrRevoked)

	got, err = s.client.Get(ctx, s.mint)
	s.Require().NoError(err)
	s.False(got.Mutable)
}

func (s *ClientSuite) TestErrorMapping() {
	_, err := s.client.Get(context.Background(), solana.NewWallet().PublicKey())
	s.ErrorIs(err, metadata.ErrNotFound)

	broken := metadata.NewClient(s.server.URL+"/broken", time.Second)
	_, err = broken.Get(context.Background(), s.mint)
	s.ErrorIs(err, metadata.ErrUnavailable)

	s.server.Close()
	_, err = s.client.Get(context.Background(), s.mint)
	s.ErrorIs(err, metadata.ErrUnavailable)
}
