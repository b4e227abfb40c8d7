package models_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/suite"

	"tollgate/internal/governance/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	now       time.Time
	authority solana.PublicKey
	reg       *models.Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.authority = solana.NewWallet().PublicKey()
	reg, err := models.NewRegistry(solana.NewWallet().PublicKey(), s.authority, s.now)
	s.Require().NoError(err)
	s.reg = reg
}

// =============================================================================
// Construction
// =============================================================================

func (s *RegistrySuite) TestNewRegistry() {
	s.Run("applies defaults", func() {
		s.Equal(models.DefaultRequiredApprovals, s.reg.RequiredApprovals)
		s.Equal(int64(5400), s.reg.CooldownSeconds)
		s.Equal(90*time.Minute, s.reg.Cooldown())
		s.True(s.reg.IsSigner(s.authority))
		s.Equal(1, s.reg.Signers.Len())
		s.Equal(s.authority, s.reg.UpdateAuthority)
		s.False(s.reg.TokenSet)
		s.Equal(domain.ProposalID(1), s.reg.NextProposalID)
		s.NoError(s.reg.CheckInvariants())
	})

	s.Run("rejects zero authority", func() {
		_, err := models.NewRegistry(solana.NewWallet().PublicKey(), solana.PublicKey{}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Authority checks
// =============================================================================

func (s *RegistrySuite) TestAuthorityChecks() {
	stranger := solana.NewWallet().PublicKey()

	s.Run("authority passes both gates", func() {
		s.NoError(s.reg.RequireAuthority(s.authority))
		s.NoError(s.reg.RequireUpdateAuthority(s.authority))
	})

	s.Run("stranger fails", func() {
		s.True(dErrors.HasCode(s.reg.RequireAuthority(stranger), dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(s.reg.RequireUpdateAuthority(stranger), dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(s.reg.RequireSigner(stranger), dErrors.CodeUnauthorized))
	})

	s.Run("revoked update authority rejects everyone", func() {
		s.reg.ApplyRevokeUpdateAuthority(s.now)
		s.True(s.reg.UpdateAuthority.IsZero())
		s.True(dErrors.HasCode(s.reg.RequireUpdateAuthority(s.authority), dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(s.reg.RequireUpdateAuthority(solana.PublicKey{}), dErrors.CodeUnauthorized))
		s.NoError(s.reg.RequireAuthority(s.authority))
	})
}

// =============================================================================
// Token binding
// =============================================================================

func (s *RegistrySuite) TestBindToken() {
	token := solana.NewWallet().PublicKey()

	s.Require().NoError(s.reg.CanBindToken(token))
	s.reg.ApplyBindToken(token, s.now)
	s.True(s.reg.TokenSet)
	s.Equal(token, s.reg.BoundToken)
	s.NoError(s.reg.CheckInvariants())

	err := s.reg.CanBindToken(solana.NewWallet().PublicKey())
	s.True(dErrors.HasCode(err, dErrors.CodeTokenAlreadySet))
}

func (s *RegistrySuite) TestBindTokenRejectsZero() {
	s.True(dErrors.HasCode(s.reg.CanBindToken(solana.PublicKey{}), dErrors.CodeValidation))
}

// =============================================================================
// Signers and threshold
// =============================================================================

func (s *RegistrySuite) TestRequiredApprovalsBounds() {
	s.True(dErrors.HasCode(s.reg.CanSetRequiredApprovals(0), dErrors.CodeInvariantViolation))
	s.True(dErrors.HasCode(s.reg.CanSetRequiredApprovals(2), dErrors.CodeInvariantViolation))
	s.NoError(s.reg.CanSetRequiredApprovals(1))

	s.reg.ApplyAddSigner(solana.NewWallet().PublicKey(), s.now)
	s.NoError(s.reg.CanSetRequiredApprovals(2))
}

func (s *RegistrySuite) TestSignerLimits() {
	s.Run("cannot add a duplicate or zero signer", func() {
		s.True(dErrors.HasCode(s.reg.CanAddSigner(s.authority), dErrors.CodeConflict))
		s.True(dErrors.HasCode(s.reg.CanAddSigner(solana.PublicKey{}), dErrors.CodeValidation))
	})

	s.Run("caps the signer set", func() {
		for s.reg.Signers.Len() < models.MaxSigners {
			next := solana.NewWallet().PublicKey()
			s.Require().NoError(s.reg.CanAddSigner(next))
			s.reg.ApplyAddSigner(next, s.now)
		}
		err := s.reg.CanAddSigner(solana.NewWallet().PublicKey())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *RegistrySuite) TestRemoveSignerKeepsQuorumReachable() {
	second := solana.NewWallet().PublicKey()
	s.reg.ApplyAddSigner(second, s.now)
	s.reg.ApplyRequiredApprovals(2, s.now)

	err := s.reg.CanRemoveSigner(second)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	s.reg.ApplyRequiredApprovals(1, s.now)
	s.NoError(s.reg.CanRemoveSigner(second))
	s.reg.ApplyRemoveSigner(second, s.now)

	s.True(dErrors.HasCode(s.reg.CanRemoveSigner(s.authority), dErrors.CodeInvariantViolation))
	s.True(dErrors.HasCode(s.reg.CanRemoveSigner(second), dErrors.CodeNotFound))
}

// =============================================================================
// Lists
// =============================================================================

func (s *RegistrySuite) TestSetMembership() {
	addr := solana.NewWallet().PublicKey()

	changed, err := s.reg.SetMembership(models.ListBlacklist, addr, true, s.now)
	s.Require().NoError(err)
	s.True(changed)
	s.True(s.reg.Blacklist.Has(addr))

	changed, err = s.reg.SetMembership(models.ListBlacklist, addr, true, s.now)
	s.Require().NoError(err)
	s.False(changed)

	changed, err = s.reg.SetMembership(models.ListBlacklist, addr, false, s.now)
	s.Require().NoError(err)
	s.True(changed)
	s.False(s.reg.Blacklist.Has(addr))

	_, err = s.reg.SetMembership(models.List("whitelist"), addr, true, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *RegistrySuite) TestAllocateProposalIDIsMonotonic() {
	first := s.reg.AllocateProposalID()
	second := s.reg.AllocateProposalID()
	s.Equal(domain.ProposalID(1), first)
	s.Equal(domain.ProposalID(2), second)
	s.Equal(domain.ProposalID(3), s.reg.NextProposalID)
}

// =============================================================================
// Proposals
// =============================================================================

type ProposalSuite struct {
	suite.Suite
	now      time.Time
	signerA  solana.PublicKey
	signerB  solana.PublicKey
	reg      *models.Registry
	proposal *models.Proposal
}

func TestProposalSuite(t *testing.T) {
	suite.Run(t, new(ProposalSuite))
}

func (s *ProposalSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.signerA = solana.NewWallet().PublicKey()
	s.signerB = solana.NewWallet().PublicKey()

	reg, err := models.NewRegistry(solana.NewWallet().PublicKey(), s.signerA, s.now)
	s.Require().NoError(err)
	reg.ApplyAddSigner(s.signerB, s.now)
	reg.ApplyRequiredApprovals(2, s.now)
	s.reg = reg

	action := models.Action{Kind: models.ActionSetBlacklist, Account: solana.NewWallet().PublicKey(), Enabled: true}
	p, err := models.NewProposal(1, solana.NewWallet().PublicKey(), action, s.signerA, s.now, reg.Cooldown())
	s.Require().NoError(err)
	s.proposal = p
}

func (s *ProposalSuite) TestNewProposal() {
	s.Equal(models.ProposalOpen, s.proposal.Status)
	s.Equal(0, s.proposal.Approvals.Len())
	s.Equal(s.now.Add(90*time.Minute), s.proposal.ExecuteAfter)
	s.Nil(s.proposal.ExecutedAt)
}

func (s *ProposalSuite) TestReadiness() {
	later := s.proposal.ExecuteAfter

	s.Run("needs quorum", func() {
		s.proposal.ApplyApproval(s.signerA)
		err := s.proposal.Readiness(s.reg, later)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientApprovals))
	})

	s.Run("duplicate approvals count once", func() {
		s.False(s.proposal.ApplyApproval(s.signerA))
		s.Equal(1, s.proposal.ApprovalCount(s.reg.Signers))
	})

	s.Run("needs the cooldown to elapse", func() {
		s.proposal.ApplyApproval(s.signerB)
		err := s.proposal.Readiness(s.reg, later.Add(-time.Second))
		s.True(dErrors.HasCode(err, dErrors.CodeCooldownNotExpired))
	})

	s.Run("executable exactly at the deadline", func() {
		s.NoError(s.proposal.Readiness(s.reg, later))
	})

	s.Run("approvals from removed signers stop counting", func() {
		s.reg.ApplyRemoveSigner(s.signerB, s.now)
		s.Equal(1, s.proposal.ApprovalCount(s.reg.Signers))
	})
}

func (s *ProposalSuite) TestExecutedIsTerminal() {
	s.proposal.ApplyExecution(s.now)
	s.Require().NotNil(s.proposal.ExecutedAt)

	s.True(dErrors.HasCode(s.proposal.CanApprove(), dErrors.CodeAlreadyExecuted))
	s.True(dErrors.HasCode(s.proposal.CanReject("late"), dErrors.CodeAlreadyExecuted))
	s.True(dErrors.HasCode(s.proposal.Readiness(s.reg, s.now.Add(24*time.Hour)), dErrors.CodeAlreadyExecuted))
}

func (s *ProposalSuite) TestRejection() {
	s.True(dErrors.HasCode(s.proposal.CanReject("   "), dErrors.CodeValidation))

	long := make([]byte, models.MaxRejectionReason+1)
	for i := range long {
		long[i] = 'x'
	}
	s.True(dErrors.HasCode(s.proposal.CanReject(string(long)), dErrors.CodeValidation))

	s.Require().NoError(s.proposal.CanReject("wrong pool"))
	s.proposal.ApplyRejection(s.signerB, " wrong pool ", s.now)
	s.Equal(models.ProposalRejected, s.proposal.Status)
	s.Equal("wrong pool", s.proposal.Rejection.Reason)
	s.True(dErrors.HasCode(s.proposal.CanApprove(), dErrors.CodeInvalidState))
}

// =============================================================================
// Actions
// =============================================================================

func TestActionValidate(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	cases := []struct {
		name   string
		action models.Action
		code   dErrors.Code
	}{
		{"list action needs account", models.Action{Kind: models.ActionSetRestricted}, dErrors.CodeValidation},
		{"list action ok", models.Action{Kind: models.ActionSetLiquidityPool, Account: account, Enabled: true}, ""},
		{"zero threshold", models.Action{Kind: models.ActionSetRequiredApprovals}, dErrors.CodeValidation},
		{"threshold ok", models.Action{Kind: models.ActionSetRequiredApprovals, Count: 3}, ""},
		{"negative cooldown", models.Action{Kind: models.ActionSetCooldownPeriod, Seconds: -1}, dErrors.CodeValidation},
		{"unpause has no payload", models.Action{Kind: models.ActionClearEmergencyPause}, ""},
		{"unknown role", models.Action{Kind: models.ActionSetProtocolAddress, Role: "oracle", Account: account}, dErrors.CodeValidation},
		{"treasury ok", models.Action{Kind: models.ActionSetProtocolAddress, Role: domain.RoleTreasury, Account: account}, ""},
		{"metadata needs symbol", models.Action{Kind: models.ActionUpdateMetadata, Name: "Toll"}, dErrors.CodeValidation},
		{"metadata ok", models.Action{Kind: models.ActionUpdateMetadata, Name: "Toll", Symbol: "TOLL"}, ""},
		{"missing kind", models.Action{}, dErrors.CodeValidation},
		{"unknown kind", models.Action{Kind: "mint_more"}, dErrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !dErrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}
