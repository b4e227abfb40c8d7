package models

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

const (
	DefaultRequiredApprovals uint8 = 1
	DefaultCooldown                = 90 * time.Minute
	MaxSigners                     = 10
)

// List names one of the registry's policy address sets.
type List string

const (
	ListBlacklist       List = "blacklist"
	ListRestricted      List = "restricted"
	ListLiquidityPools  List = "liquidity_pools"
	ListSellLimitExempt List = "sell_limit_exempt"
)

// Registry is the governance aggregate. One exists per governance program.
//
// Invariants:
//   - 1 <= RequiredApprovals <= len(Signers) <= MaxSigners
//   - TokenSet is a one-way latch; BoundToken is non-zero iff TokenSet
//   - Authority never changes after construction
//   - UpdateAuthority starts as Authority and can only move to zero
//   - NextProposalID only increases
type Registry struct {
	Address           solana.PublicKey  `json:"address"`
	Authority         solana.PublicKey  `json:"authority"`
	UpdateAuthority   solana.PublicKey  `json:"update_authority"`
	Signers           domain.AddressSet `json:"signers"`
	RequiredApprovals uint8             `json:"required_approvals"`
	CooldownSeconds   int64             `json:"cooldown_seconds"`
	TokenSet          bool              `json:"token_set"`
	BoundToken        solana.PublicKey  `json:"bound_token"`
	Blacklist         domain.AddressSet `json:"blacklist"`
	Restricted        domain.AddressSet `json:"restricted"`
	LiquidityPools    domain.AddressSet `json:"liquidity_pools"`
	SellLimitExempt   domain.AddressSet `json:"sell_limit_exempt"`
	NextProposalID    domain.ProposalID `json:"next_proposal_id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewRegistry builds a registry with the default threshold and cooldown and
// the authority as its only signer.
func NewRegistry(addr, authority solana.PublicKey, now time.Time) (*Registry, error) {
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "authority must not be the zero address")
	}
	return &Registry{
		Address:           addr,
		Authority:         authority,
		UpdateAuthority:   authority,
		Signers:           domain.NewAddressSet(authority),
		RequiredApprovals: DefaultRequiredApprovals,
		CooldownSeconds:   int64(DefaultCooldown / time.Second),
		Blacklist:         domain.NewAddressSet(),
		Restricted:        domain.NewAddressSet(),
		LiquidityPools:    domain.NewAddressSet(),
		SellLimitExempt:   domain.NewAddressSet(),
		NextProposalID:    1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (r *Registry) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

func (r *Registry) IsSigner(addr solana.PublicKey) bool {
	return r.Signers.Has(addr)
}

// RequireAuthority fails unless caller is the root authority.
func (r *Registry) RequireAuthority(caller solana.PublicKey) error {
	if caller.IsZero() || !caller.Equals(r.Authority) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the governance authority")
	}
	return nil
}

// RequireUpdateAuthority fails unless caller holds the update authority.
// After revocation nobody does.
func (r *Registry) RequireUpdateAuthority(caller solana.PublicKey) error {
	if r.UpdateAuthority.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "update authority has been revoked")
	}
	if caller.IsZero() || !caller.Equals(r.UpdateAuthority) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the update authority")
	}
	return nil
}

func (r *Registry) RequireSigner(caller solana.PublicKey) error {
	if caller.IsZero() || !r.IsSigner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not a governance signer")
	}
	return nil
}

// CanBindToken checks the one-time binding latch.
func (r *Registry) CanBindToken(token solana.PublicKey) error {
	if r.TokenSet {
		return dErrors.New(dErrors.CodeTokenAlreadySet, "a token is already bound to this registry")
	}
	if token.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "token must not be the zero address")
	}
	return nil
}

func (r *Registry) ApplyBindToken(token solana.PublicKey, now time.Time) {
	r.TokenSet = true
	r.BoundToken = token
	r.UpdatedAt = now
}

// CanSetRequiredApprovals checks the quorum invariant for a new threshold.
func (r *Registry) CanSetRequiredApprovals(n uint8) error {
	if n < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "required approvals must be at least 1")
	}
	if int(n) > r.Signers.Len() {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"required approvals %d exceeds signer count %d", n, r.Signers.Len())
	}
	return nil
}

func (r *Registry) ApplyRequiredApprovals(n uint8, now time.Time) {
	r.RequiredApprovals = n
	r.UpdatedAt = now
}

func (r *Registry) CanSetCooldown(seconds int64) error {
	if seconds <= 0 {
		return dErrors.New(dErrors.CodeValidation, "cooldown period must be positive")
	}
	return nil
}

func (r *Registry) ApplyCooldown(seconds int64, now time.Time) {
	r.CooldownSeconds = seconds
	r.UpdatedAt = now
}

func (r *Registry) CanAddSigner(addr solana.PublicKey) error {
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "signer must not be the zero address")
	}
	if r.IsSigner(addr) {
		return dErrors.New(dErrors.CodeConflict, "address is already a signer")
	}
	if r.Signers.Len() >= MaxSigners {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "signer set is full (%d)", MaxSigners)
	}
	return nil
}

// CanRemoveSigner refuses removals that would leave the threshold
// unsatisfiable.
func (r *Registry) CanRemoveSigner(addr solana.PublicKey) error {
	if !r.IsSigner(addr) {
		return dErrors.New(dErrors.CodeNotFound, "address is not a signer")
	}
	remaining := r.Signers.Len() - 1
	if remaining < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot remove the last signer")
	}
	if int(r.RequiredApprovals) > remaining {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"removing signer leaves %d signers for a threshold of %d", remaining, r.RequiredApprovals)
	}
	return nil
}

func (r *Registry) ApplyAddSigner(addr solana.PublicKey, now time.Time) {
	r.Signers.Add(addr)
	r.UpdatedAt = now
}

func (r *Registry) ApplyRemoveSigner(addr solana.PublicKey, now time.Time) {
	r.Signers.Remove(addr)
	r.UpdatedAt = now
}

// SetMembership toggles addr in the named list and reports whether it
// changed.
func (r *Registry) SetMembership(list List, addr solana.PublicKey, enabled bool, now time.Time) (bool, error) {
	var set *domain.AddressSet
	switch list {
	case ListBlacklist:
		set = &r.Blacklist
	case ListRestricted:
		set = &r.Restricted
	case ListLiquidityPools:
		set = &r.LiquidityPools
	case ListSellLimitExempt:
		set = &r.SellLimitExempt
	default:
		return false, dErrors.Newf(dErrors.CodeValidation, "unknown list %q", list)
	}
	changed := set.Toggle(addr, enabled)
	if changed {
		r.UpdatedAt = now
	}
	return changed, nil
}

// AllocateProposalID hands out the next id.
func (r *Registry) AllocateProposalID() domain.ProposalID {
	id := r.NextProposalID
	r.NextProposalID++
	return id
}

// ApplyRevokeUpdateAuthority clears the update authority permanently.
func (r *Registry) ApplyRevokeUpdateAuthority(now time.Time) {
	r.UpdateAuthority = solana.PublicKey{}
	r.UpdatedAt = now
}

// CheckInvariants is run before every registry write.
func (r *Registry) CheckInvariants() error {
	n := r.Signers.Len()
	switch {
	case n < 1 || n > MaxSigners:
		return dErrors.Newf(dErrors.CodeInvariantViolation, "signer count %d out of range", n)
	case r.RequiredApprovals < 1 || int(r.RequiredApprovals) > n:
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"required approvals %d not satisfiable by %d signers", r.RequiredApprovals, n)
	case r.TokenSet == r.BoundToken.IsZero():
		return dErrors.New(dErrors.CodeInvariantViolation, "token binding is inconsistent")
	}
	return nil
}
