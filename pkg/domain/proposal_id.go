package domain

import (
	"encoding/binary"
	"strconv"

	dErrors "tollgate/pkg/domain-errors"
)

// ProposalID is the sequential identifier of a governance proposal. The
// first proposal is 1; 0 is never allocated.
type ProposalID uint64

// ParseProposalID parses a decimal proposal id from a path or flag value.
func ParseProposalID(raw string) (ProposalID, error) {
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "proposal id is required")
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid proposal id")
	}
	return ProposalID(v), nil
}

func (id ProposalID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Seed is the little-endian encoding used when deriving the proposal address.
func (id ProposalID) Seed() []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(id))
}
