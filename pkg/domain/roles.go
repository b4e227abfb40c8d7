package domain

import dErrors "tollgate/pkg/domain-errors"

// ProtocolRole names one of the protocol addresses held on the token policy.
type ProtocolRole string

const (
	RoleBridge   ProtocolRole = "bridge"
	RoleTreasury ProtocolRole = "treasury"
	RoleBond     ProtocolRole = "bond"
)

func ParseProtocolRole(raw string) (ProtocolRole, error) {
	switch r := ProtocolRole(raw); r {
	case RoleBridge, RoleTreasury, RoleBond:
		return r, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown protocol role %q", raw)
	}
}
