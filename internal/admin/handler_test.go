package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tollgate/internal/ledger"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/audit/store/memory"
)

type stubVerifier struct {
	v   ledger.Verification
	err error
}

func (s stubVerifier) Verify(context.Context) (ledger.Verification, error) {
	return s.v, s.err
}

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, ev audit.Event) error {
	p.events = append(p.events, ev)
	return nil
}

type AdminHandlerSuite struct {
	suite.Suite
	events   *memory.InMemoryStore
	security *recordingPublisher
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	s.events = memory.NewInMemoryStore()
	s.security = &recordingPublisher{}
}

func (s *AdminHandlerSuite) router(v Verifier) http.Handler {
	h := New(v, s.events, slog.New(slog.NewTextHandler(io.Discard, nil)), WithSecurityPublisher(s.security))
	r := chi.NewRouter()
	r.Route("/admin", h.Register)
	return r
}

func (s *AdminHandlerSuite) get(v Verifier, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router(v).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// =============================================================================
// Ledger verification
// =============================================================================

func (s *AdminHandlerSuite) TestVerifyLedger() {
	s.Run("fresh ledger verifies", func() {
		rec := s.get(ledger.NewMemory(), "/admin/ledger/verify")
		s.Equal(http.StatusOK, rec.Code)

		var body VerificationResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.True(body.Conserved)
		s.Zero(body.Entries)
		s.Empty(s.security.events)
	})

	s.Run("broken chain raises a security event", func() {
		s.SetupTest()
		rec := s.get(stubVerifier{err: &ledger.ChainBreak{Seq: 3, Reason: "hash mismatch"}}, "/admin/ledger/verify")
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Require().Len(s.security.events, 1)
		s.Equal(string(audit.EventLedgerVerificationFault), s.security.events[0].Action)
		s.Equal(audit.CategorySecurity, s.security.events[0].Category)
	})

	s.Run("supply mismatch is reported", func() {
		s.SetupTest()
		v := ledger.Verification{
			Entries:  4,
			Supply:   map[string]uint64{"mint": 100},
			Balances: map[string]uint64{"mint": 90},
		}
		rec := s.get(stubVerifier{v: v}, "/admin/ledger/verify")
		s.Equal(http.StatusInternalServerError, rec.Code)

		var body VerificationResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.False(body.Conserved)
		s.Len(s.security.events, 1)
	})

	s.Run("storage failure is not a security event", func() {
		s.SetupTest()
		rec := s.get(stubVerifier{err: errors.New("connection reset")}, "/admin/ledger/verify")
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Empty(s.security.events)
	})
}

// =============================================================================
// Audit trail
// =============================================================================

func (s *AdminHandlerSuite) TestListEvents() {
	ctx := context.Background()
	for _, action := range []audit.AuditEvent{audit.EventTokensMinted, audit.EventTokensBurned, audit.EventTransferDenied} {
		s.Require().NoError(s.events.Append(ctx, audit.NewEvent(ctx, action, ledger.Programs{}.Token)))
	}

	s.Run("limit caps the result", func() {
		rec := s.get(ledger.NewMemory(), "/admin/events?limit=2")
		s.Equal(http.StatusOK, rec.Code)

		var body EventsListResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal(2, body.Total)
		s.Len(body.Events, 2)
	})

	s.Run("default limit returns everything available", func() {
		rec := s.get(ledger.NewMemory(), "/admin/events")
		var body EventsListResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal(3, body.Total)
	})

	s.Run("invalid limit", func() {
		for _, raw := range []string{"0", "-1", "abc", "501"} {
			rec := s.get(ledger.NewMemory(), "/admin/events?limit="+raw)
			s.Equal(http.StatusBadRequest, rec.Code, raw)
		}
	})
}

func TestEmptyEventListEncodesAsArray(t *testing.T) {
	h := New(ledger.NewMemory(), memory.NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	h.HandleListEvents(rec, httptest.NewRequest(http.MethodGet, "/admin/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events":[],"total":0}`, rec.Body.String())
}
