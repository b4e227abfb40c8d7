package audit

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"tollgate/pkg/requestcontext"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and downstream routing.
type EventCategory string

const (
	// CategoryGovernance covers state changes to the governance registry,
	// proposals and the token policy. These are the permanent record of who
	// changed policy and when.
	CategoryGovernance EventCategory = "governance"

	// CategorySecurity covers refused operations and authentication failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine token movement.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so the ledger outbox and the Kafka relay can carry it
// unchanged.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Category  EventCategory `json:"category"`
	Action    string        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	// Actor is the signer that caused the event.
	Actor string `json:"actor,omitempty"`
	// Subject is the record or account primarily affected.
	Subject    string `json:"subject,omitempty"`
	Target     string `json:"target,omitempty"`
	ProposalID string `json:"proposal_id,omitempty"`
	Amount     uint64 `json:"amount,omitempty"`
	Decision   string `json:"decision,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Client     string `json:"client,omitempty"`
}

type AuditEvent string

const (
	// Governance registry
	EventGovernanceInitialized     AuditEvent = "governance_initialized"
	EventTokenBound                AuditEvent = "token_bound"
	EventRequiredApprovalsChanged  AuditEvent = "required_approvals_changed"
	EventCooldownChanged           AuditEvent = "cooldown_changed"
	EventSignerAdded               AuditEvent = "signer_added"
	EventSignerRemoved             AuditEvent = "signer_removed"
	EventBlacklistUpdated          AuditEvent = "blacklist_updated"
	EventRestrictedUpdated         AuditEvent = "restricted_updated"
	EventLiquidityPoolUpdated      AuditEvent = "liquidity_pool_updated"
	EventSellLimitExemptionUpdated AuditEvent = "sell_limit_exemption_updated"

	// Proposals
	EventProposalCreated  AuditEvent = "proposal_created"
	EventProposalApproved AuditEvent = "proposal_approved"
	EventProposalExecuted AuditEvent = "proposal_executed"
	EventProposalRejected AuditEvent = "proposal_rejected"

	// Token policy
	EventPolicyInitialized       AuditEvent = "policy_initialized"
	EventEmergencyPaused         AuditEvent = "emergency_paused"
	EventEmergencyUnpaused       AuditEvent = "emergency_unpaused"
	EventProtocolAddressUpdated  AuditEvent = "protocol_address_updated"
	EventMetadataUpdated         AuditEvent = "metadata_updated"
	EventAuthoritiesRevoked      AuditEvent = "authorities_revoked"
	EventTokensMinted            AuditEvent = "tokens_minted"
	EventTokensBurned            AuditEvent = "tokens_burned"
	EventTransferSettled         AuditEvent = "transfer_settled"
	EventTransferDenied          AuditEvent = "transfer_denied"
	EventAuthFailed              AuditEvent = "auth_failed"
	EventTokenReplayRejected     AuditEvent = "token_replay_rejected"
	EventLedgerVerificationFault AuditEvent = "ledger_verification_fault"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventGovernanceInitialized:     CategoryGovernance,
	EventTokenBound:                CategoryGovernance,
	EventRequiredApprovalsChanged:  CategoryGovernance,
	EventCooldownChanged:           CategoryGovernance,
	EventSignerAdded:               CategoryGovernance,
	EventSignerRemoved:             CategoryGovernance,
	EventBlacklistUpdated:          CategoryGovernance,
	EventRestrictedUpdated:         CategoryGovernance,
	EventLiquidityPoolUpdated:      CategoryGovernance,
	EventSellLimitExemptionUpdated: CategoryGovernance,
	EventProposalCreated:           CategoryGovernance,
	EventProposalApproved:          CategoryGovernance,
	EventProposalExecuted:          CategoryGovernance,
	EventProposalRejected:          CategoryGovernance,
	EventPolicyInitialized:         CategoryGovernance,
	EventEmergencyPaused:           CategoryGovernance,
	EventEmergencyUnpaused:         CategoryGovernance,
	EventProtocolAddressUpdated:    CategoryGovernance,
	EventMetadataUpdated:           CategoryGovernance,
	EventAuthoritiesRevoked:        CategoryGovernance,

	EventTransferDenied:          CategorySecurity,
	EventAuthFailed:              CategorySecurity,
	EventTokenReplayRejected:     CategorySecurity,
	EventLedgerVerificationFault: CategorySecurity,

	EventTokensMinted:    CategoryOperations,
	EventTokensBurned:    CategoryOperations,
	EventTransferSettled: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// NewEvent builds an event stamped with the request-scoped time, request id
// and client description found in ctx.
func NewEvent(ctx context.Context, action AuditEvent, actor solana.PublicKey) Event {
	ev := Event{
		ID:        uuid.New(),
		Category:  action.Category(),
		Action:    string(action),
		Timestamp: requestcontext.Now(ctx).UTC(),
		RequestID: requestcontext.RequestID(ctx),
		Client:    requestcontext.Client(ctx),
	}
	if !actor.IsZero() {
		ev.Actor = actor.String()
	}
	return ev
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxEntry is a persisted event awaiting relay to the message bus.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}
