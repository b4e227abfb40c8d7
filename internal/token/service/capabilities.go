package service

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/ledger"
	"tollgate/internal/metadata"
	"tollgate/internal/token/metrics"
	"tollgate/pkg/domain"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
	"tollgate/pkg/requestcontext"
)

// Capabilities is the governed surface of the token policy. The governance
// program calls it from inside its own transactions; every mutation is
// refused unless the capability names the policy's governing registry.
type Capabilities struct {
	store    Store
	metadata metadata.Registry
	metrics  *metrics.Metrics
}

func NewCapabilities(store Store, md metadata.Registry, m *metrics.Metrics) *Capabilities {
	return &Capabilities{store: store, metadata: md, metrics: m}
}

// PolicyGovernance returns the registry named by the policy at addr, or
// sentinel.ErrNotFound when no policy lives there.
func (c *Capabilities) PolicyGovernance(ctx context.Context, tx ledger.Tx, addr solana.PublicKey) (solana.PublicKey, error) {
	if !addr.Equals(c.store.PolicyAddress()) {
		return solana.PublicKey{}, sentinel.ErrNotFound
	}
	p, err := c.store.FindPolicy(ctx, tx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return p.Governance, nil
}

func (c *Capabilities) ApplyPause(ctx context.Context, tx ledger.Tx, capability domain.Capability, paused bool) error {
	p, err := loadPolicy(ctx, tx, c.store)
	if err != nil {
		return err
	}
	if err := p.Authorize(capability); err != nil {
		return err
	}
	if !p.ApplyPause(paused, requestcontext.Now(ctx)) {
		return nil
	}
	if err := savePolicy(ctx, tx, c.store, p); err != nil {
		return err
	}

	event := audit.EventEmergencyUnpaused
	if paused {
		event = audit.EventEmergencyPaused
	}
	ev := audit.NewEvent(ctx, event, capability.Caller)
	ev.Subject = p.Address.String()
	tx.Emit(ev)
	tx.OnCommit(func() { c.metrics.SetPaused(paused) })
	return nil
}

func (c *Capabilities) SetProtocolAddress(ctx context.Context, tx ledger.Tx, capability domain.Capability, role domain.ProtocolRole, account solana.PublicKey) error {
	p, err := loadPolicy(ctx, tx, c.store)
	if err != nil {
		return err
	}
	if err := p.Authorize(capability); err != nil {
		return err
	}
	if err := p.ApplyProtocolAddress(role, account, requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := savePolicy(ctx, tx, c.store, p); err != nil {
		return err
	}
	ev := audit.NewEvent(ctx, audit.EventProtocolAddressUpdated, capability.Caller)
	ev.Subject = p.Address.String()
	ev.Target = account.String()
	ev.Decision = string(role)
	tx.Emit(ev)
	return nil
}

// UpdateMetadata forwards to the collaborator. It is the last step of the
// caller's transaction, so a collaborator failure rolls back the proposal.
func (c *Capabilities) UpdateMetadata(ctx context.Context, tx ledger.Tx, capability domain.Capability, name, symbol, uri string) error {
	p, err := loadPolicy(ctx, tx, c.store)
	if err != nil {
		return err
	}
	if err := p.Authorize(capability); err != nil {
		return err
	}
	if err := c.metadata.Update(ctx, p.Mint, name, symbol, uri); err != nil {
		return metadataError(err)
	}
	ev := audit.NewEvent(ctx, audit.EventMetadataUpdated, capability.Caller)
	ev.Subject = p.Mint.String()
	ev.Target = symbol
	tx.Emit(ev)
	return nil
}
