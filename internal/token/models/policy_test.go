package models_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate/internal/token/models"
	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

func newPolicy(t *testing.T) *models.PolicyState {
	t.Helper()
	authority := solana.NewWallet().PublicKey()
	p, err := models.NewPolicyState(solana.NewWallet().PublicKey(), models.InitParams{
		Authority:  authority,
		Governance: solana.NewWallet().PublicKey(),
		Mint:       solana.NewWallet().PublicKey(),
		Decimals:   6,
		Bridge:     solana.NewWallet().PublicKey(),
		Treasury:   solana.NewWallet().PublicKey(),
		Bond:       solana.NewWallet().PublicKey(),
		Name:       "Tollgate",
		Symbol:     "TOLL",
	}, time.Now())
	require.NoError(t, err)
	return p
}

func TestInitParamsValidate(t *testing.T) {
	base := models.InitParams{
		Authority:  solana.NewWallet().PublicKey(),
		Governance: solana.NewWallet().PublicKey(),
		Mint:       solana.NewWallet().PublicKey(),
		Bridge:     solana.NewWallet().PublicKey(),
		Treasury:   solana.NewWallet().PublicKey(),
		Bond:       solana.NewWallet().PublicKey(),
		Name:       "Tollgate",
		Symbol:     "TOLL",
	}
	tests := []struct {
		name   string
		mutate func(*models.InitParams)
		ok     bool
	}{
		{"valid", func(*models.InitParams) {}, true},
		{"zero treasury", func(p *models.InitParams) { p.Treasury = solana.PublicKey{} }, false},
		{"zero governance", func(p *models.InitParams) { p.Governance = solana.PublicKey{} }, false},
		{"too many decimals", func(p *models.InitParams) { p.Decimals = models.MaxDecimals + 1 }, false},
		{"missing symbol", func(p *models.InitParams) { p.Symbol = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestAuthorize(t *testing.T) {
	p := newPolicy(t)
	assert.NoError(t, p.Authorize(domain.Capability{Registry: p.Governance, Caller: p.Authority}))
	assert.True(t, dErrors.HasCode(p.Authorize(domain.Capability{Registry: solana.NewWallet().PublicKey()}), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(p.Authorize(domain.Capability{}), dErrors.CodeUnauthorized))
}

func TestMintAuthorityRevocation(t *testing.T) {
	p := newPolicy(t)
	require.NoError(t, p.RequireMintAuthority(p.Authority))
	assert.Error(t, p.RequireMintAuthority(solana.NewWallet().PublicKey()))

	p.ApplyRevokeMintAuthority(time.Now())
	assert.True(t, p.MintAuthority.IsZero())
	assert.True(t, dErrors.HasCode(p.RequireMintAuthority(p.Authority), dErrors.CodeUnauthorized))
}

func TestApplyPause(t *testing.T) {
	p := newPolicy(t)
	assert.True(t, p.ApplyPause(true, time.Now()))
	assert.False(t, p.ApplyPause(true, time.Now()))
	assert.True(t, p.ApplyPause(false, time.Now()))
}

func TestProtocolAddress(t *testing.T) {
	p := newPolicy(t)
	next := solana.NewWallet().PublicKey()

	require.NoError(t, p.ApplyProtocolAddress(domain.RoleTreasury, next, time.Now()))
	assert.Equal(t, next, p.ProtocolAddress(domain.RoleTreasury))

	err := p.ApplyProtocolAddress(domain.RoleBond, solana.PublicKey{}, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	err = p.ApplyProtocolAddress(domain.ProtocolRole("oracle"), next, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
