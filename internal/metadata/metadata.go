// Package metadata talks to the token metadata registry, the external
// collaborator that holds display metadata (name, symbol, uri) per mint and
// its update authority.
package metadata

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
	// ErrRevoked is returned for writes after the update authority was
	// cleared.
	ErrRevoked     = errors.New("metadata update authority revoked")
	ErrUnavailable = sentinel.ErrUnavailable
)

// Token is the metadata held for one mint.
type Token struct {
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	URI             string
	UpdateAuthority solana.PublicKey
	Mutable         bool
}

// Registry is the collaborator surface used by the token program.
type Registry interface {
	Create(ctx context.Context, token Token) error
	Update(ctx context.Context, mint solana.PublicKey, name, symbol, uri string) error
	ClearUpdateAuthority(ctx context.Context, mint solana.PublicKey) error
	Get(ctx context.Context, mint solana.PublicKey) (*Token, error)
}
