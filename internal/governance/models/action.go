package models

import (
	"strings"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/domain"
	dErrors "tollgate/pkg/domain-errors"
)

// ActionKind tags the payload carried by a proposal.
type ActionKind string

const (
	ActionSetLiquidityPool     ActionKind = "set_liquidity_pool"
	ActionSetBlacklist         ActionKind = "set_blacklist"
	ActionSetRestricted        ActionKind = "set_restricted"
	ActionSetSellLimitExempt   ActionKind = "set_sell_limit_exempt"
	ActionSetRequiredApprovals ActionKind = "set_required_approvals"
	ActionSetCooldownPeriod    ActionKind = "set_cooldown_period"
	ActionAddSigner            ActionKind = "add_signer"
	ActionRemoveSigner         ActionKind = "remove_signer"
	ActionSetEmergencyPause    ActionKind = "set_emergency_pause"
	ActionClearEmergencyPause  ActionKind = "clear_emergency_pause"
	ActionSetProtocolAddress   ActionKind = "set_protocol_address"
	ActionUpdateMetadata       ActionKind = "update_metadata"
)

const (
	MaxMetadataName   = 32
	MaxMetadataSymbol = 10
	MaxMetadataURI    = 200
)

var listActions = map[ActionKind]List{
	ActionSetLiquidityPool:   ListLiquidityPools,
	ActionSetBlacklist:       ListBlacklist,
	ActionSetRestricted:      ListRestricted,
	ActionSetSellLimitExempt: ListSellLimitExempt,
}

// Action is the change a proposal applies once it has quorum and its
// cooldown has elapsed. Which fields are meaningful depends on Kind.
type Action struct {
	Kind    ActionKind          `json:"kind"`
	Account solana.PublicKey    `json:"account"`
	Enabled bool                `json:"enabled,omitempty"`
	Count   uint8               `json:"count,omitempty"`
	Seconds int64               `json:"seconds,omitempty"`
	Role    domain.ProtocolRole `json:"role,omitempty"`
	Name    string              `json:"name,omitempty"`
	Symbol  string              `json:"symbol,omitempty"`
	URI     string              `json:"uri,omitempty"`
}

// List returns the registry list a membership action targets.
func (a Action) List() (List, bool) {
	l, ok := listActions[a.Kind]
	return l, ok
}

// Validate checks the payload shape. Checks that depend on registry state
// happen when the action is applied.
func (a Action) Validate() error {
	if _, ok := a.List(); ok {
		return domain.RequireNonZero("account", a.Account)
	}
	switch a.Kind {
	case ActionAddSigner, ActionRemoveSigner:
		return domain.RequireNonZero("account", a.Account)
	case ActionSetRequiredApprovals:
		if a.Count < 1 {
			return dErrors.New(dErrors.CodeValidation, "count must be at least 1")
		}
	case ActionSetCooldownPeriod:
		if a.Seconds <= 0 {
			return dErrors.New(dErrors.CodeValidation, "seconds must be positive")
		}
	case ActionSetEmergencyPause, ActionClearEmergencyPause:
	case ActionSetProtocolAddress:
		if _, err := domain.ParseProtocolRole(string(a.Role)); err != nil {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return domain.RequireNonZero("account", a.Account)
	case ActionUpdateMetadata:
		return validateMetadata(a.Name, a.Symbol, a.URI)
	case "":
		return dErrors.New(dErrors.CodeValidation, "action kind is required")
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown action kind %q", a.Kind)
	}
	return nil
}

func validateMetadata(name, symbol, uri string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(symbol) == "" {
		return dErrors.New(dErrors.CodeValidation, "name and symbol are required")
	}
	if utf8.RuneCountInString(name) > MaxMetadataName {
		return dErrors.Newf(dErrors.CodeValidation, "name exceeds %d characters", MaxMetadataName)
	}
	if utf8.RuneCountInString(symbol) > MaxMetadataSymbol {
		return dErrors.Newf(dErrors.CodeValidation, "symbol exceeds %d characters", MaxMetadataSymbol)
	}
	if len(uri) > MaxMetadataURI {
		return dErrors.Newf(dErrors.CodeValidation, "uri exceeds %d bytes", MaxMetadataURI)
	}
	return nil
}
