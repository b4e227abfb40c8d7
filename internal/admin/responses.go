package admin

import (
	"time"

	"tollgate/internal/ledger"
	audit "tollgate/pkg/platform/audit"
)

// VerificationResponse is the HTTP response DTO for a journal replay.
type VerificationResponse struct {
	Conserved bool              `json:"conserved"`
	Entries   uint64            `json:"entries"`
	Head      string            `json:"head"`
	CheckedAt time.Time         `json:"checked_at"`
	Supply    map[string]uint64 `json:"supply"`
	Balances  map[string]uint64 `json:"balances"`
}

func toVerificationResponse(v ledger.Verification) *VerificationResponse {
	return &VerificationResponse{
		Conserved: v.Conserved(),
		Entries:   v.Entries,
		Head:      v.Head,
		CheckedAt: v.Checked,
		Supply:    v.Supply,
		Balances:  v.Balances,
	}
}

// EventsListResponse wraps recent audit events for HTTP response.
type EventsListResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}
