package domain

import (
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tollgate/pkg/domain-errors"
)

func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("  ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid base58", func(t *testing.T) {
		_, err := ParseAddress("not-an-address-0OIl")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero address", func(t *testing.T) {
		_, err := ParseAddress(solana.PublicKey{}.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts a wallet address", func(t *testing.T) {
		key := solana.NewWallet().PublicKey()
		got, err := ParseAddress(key.String())
		require.NoError(t, err)
		assert.Equal(t, key, got)
	})
}

func TestParseProposalID(t *testing.T) {
	id, err := ParseProposalID("42")
	require.NoError(t, err)
	assert.Equal(t, ProposalID(42), id)
	assert.Equal(t, []byte{42, 0, 0, 0, 0, 0, 0, 0}, id.Seed())

	_, err = ParseProposalID("-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = ParseProposalID("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAddressSet(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	t.Run("nil set answers membership", func(t *testing.T) {
		var s AddressSet
		assert.False(t, s.Has(a))
		assert.True(t, s.Add(a))
		assert.True(t, s.Has(a))
	})

	t.Run("duplicate add does not change the set", func(t *testing.T) {
		s := NewAddressSet(a)
		assert.False(t, s.Add(a))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("toggle removes when disabled", func(t *testing.T) {
		s := NewAddressSet(a, b)
		assert.True(t, s.Toggle(a, false))
		assert.False(t, s.Toggle(a, false))
		assert.False(t, s.Has(a))
		assert.True(t, s.Has(b))
	})

	t.Run("encoding is order independent", func(t *testing.T) {
		first, err := json.Marshal(NewAddressSet(a, b))
		require.NoError(t, err)
		second, err := json.Marshal(NewAddressSet(b, a))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(second))

		var decoded AddressSet
		require.NoError(t, json.Unmarshal(first, &decoded))
		assert.True(t, decoded.Has(a))
		assert.True(t, decoded.Has(b))
	})
}
