package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	govmodels "tollgate/internal/governance/models"
	govsvc "tollgate/internal/governance/service"
	govstore "tollgate/internal/governance/store"
	"tollgate/internal/ledger"
	"tollgate/internal/metadata"
	toksvc "tollgate/internal/token/service"
	tokstore "tollgate/internal/token/store"
	"tollgate/pkg/requestcontext"
	"tollgate/pkg/testutil"
)

var programs = ledger.Programs{
	Governance: solana.MustPublicKeyFromBase58("GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"),
	Token:      solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"),
}

type HandlerSuite struct {
	suite.Suite
	router     http.Handler
	gov        *govsvc.Service
	governance solana.PublicKey
	policy     solana.PublicKey
	authority  solana.PublicKey
	holder     solana.PublicKey
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.NewMemory()
	gs, err := govstore.New(programs)
	s.Require().NoError(err)
	ts, err := tokstore.New(programs)
	s.Require().NoError(err)
	md := metadata.NewMemory()

	s.gov = govsvc.New(l, gs, toksvc.NewCapabilities(ts, md, nil), govsvc.WithLogger(logger))
	tokens := toksvc.New(l, ts, s.gov, md, toksvc.WithLogger(logger))
	s.governance = gs.RegistryAddress()
	s.policy = ts.PolicyAddress()
	s.authority = solana.NewWallet().PublicKey()
	s.holder = solana.NewWallet().PublicKey()

	r := chi.NewRouter()
	r.Use(testutil.SignerFromHeader)
	r.Route("/v1", New(tokens, logger).Register)
	s.router = r
}

func (s *HandlerSuite) call(method, path string, signer solana.PublicKey, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewSignedRequest(s.T(), method, path, signer, body))
}

func (s *HandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	return testutil.ErrorCode(s.T(), rec)
}

func (s *HandlerSuite) initialize() {
	rec := s.call(http.MethodPost, "/v1/token/policy", s.authority, map[string]any{
		"governance": s.governance.String(),
		"mint":       solana.NewWallet().PublicKey().String(),
		"decimals":   9,
		"bridge":     solana.NewWallet().PublicKey().String(),
		"treasury":   solana.NewWallet().PublicKey().String(),
		"bond":       solana.NewWallet().PublicKey().String(),
		"name":       "Tollgate",
		"symbol":     "TOLL",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	ctx := context.Background()
	_, err := s.gov.Initialize(ctx, s.authority)
	s.Require().NoError(err)
	_, err = s.gov.BindToken(ctx, s.authority, s.policy)
	s.Require().NoError(err)
}

func (s *HandlerSuite) mint(amount uint64) {
	rec := s.call(http.MethodPost, "/v1/token/mint", s.authority, map[string]any{"to": s.holder.String(), "amount": amount})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

// =============================================================================
// Policy
// =============================================================================

func (s *HandlerSuite) TestInitializeValidation() {
	rec := s.call(http.MethodPost, "/v1/token/policy", s.authority, map[string]any{
		"governance": s.governance.String(),
		"name":       "Tollgate",
		"symbol":     "TOLL",
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.call(http.MethodPost, "/v1/token/policy", solana.PublicKey{}, map[string]any{})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestGetPolicyReportsSupply() {
	s.initialize()
	s.mint(250)

	rec := s.call(http.MethodGet, "/v1/token/policy", solana.PublicKey{}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var p PolicyResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&p))
	s.Equal(uint64(250), p.Supply)
	s.Equal(s.authority.String(), p.MintAuthority)
}

func (s *HandlerSuite) TestGetPolicyBeforeInitialization() {
	rec := s.call(http.MethodGet, "/v1/token/policy", solana.PublicKey{}, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

// =============================================================================
// Transfers
// =============================================================================

func (s *HandlerSuite) TestTransfer() {
	s.initialize()
	s.mint(1000)
	recipient := solana.NewWallet().PublicKey()

	rec := s.call(http.MethodPost, "/v1/token/transfers", s.holder, map[string]any{"to": recipient.String(), "amount": 400})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var receipt TransferResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&receipt))
	s.Equal(uint64(400), receipt.NetAmount)

	rec = s.call(http.MethodGet, "/v1/token/balances/"+recipient.String(), solana.PublicKey{}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var bal BalanceResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&bal))
	s.Equal(uint64(400), bal.Amount)
}

func (s *HandlerSuite) TestTransferDenials() {
	s.initialize()
	s.mint(100)
	pool := solana.NewWallet().PublicKey()

	ctx := context.Background()
	p, err := s.gov.CreateProposal(ctx, s.authority, govmodels.Action{Kind: govmodels.ActionSetLiquidityPool, Account: pool, Enabled: true})
	s.Require().NoError(err)
	_, err = s.gov.Approve(requestcontext.WithTime(ctx, p.ExecuteAfter), s.authority, p.ID)
	s.Require().NoError(err)

	rec := s.call(http.MethodPost, "/v1/token/transfers", s.holder, map[string]any{"to": pool.String(), "amount": 6})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("sell_limit_exceeded", s.errorCode(rec))

	rec = s.call(http.MethodPost, "/v1/token/transfers", s.holder, map[string]any{"to": pool.String(), "amount": 5})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.call(http.MethodPost, "/v1/token/transfers", s.holder, map[string]any{"to": solana.NewWallet().PublicKey().String(), "amount": 500})
	s.Equal("insufficient_balance", s.errorCode(rec))

	rec = s.call(http.MethodPost, "/v1/token/transfers", s.holder, map[string]any{"to": pool.String(), "amount": 0})
	s.Equal(http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Supply & authorities
// =============================================================================

func (s *HandlerSuite) TestBurnAndRevoke() {
	s.initialize()
	s.mint(10)

	rec := s.call(http.MethodPost, "/v1/token/burn", s.holder, map[string]any{"amount": 4})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.call(http.MethodPost, "/v1/token/revoke-authorities", s.holder, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.call(http.MethodPost, "/v1/token/revoke-authorities", s.authority, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var p PolicyResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&p))
	s.Empty(p.MintAuthority)

	rec = s.call(http.MethodPost, "/v1/token/mint", s.authority, map[string]any{"to": s.holder.String(), "amount": 1})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestBalanceRejectsBadAddress() {
	rec := s.call(http.MethodGet, "/v1/token/balances/zzz", solana.PublicKey{}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
