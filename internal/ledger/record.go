package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"tollgate/pkg/platform/sentinel"
)

// Record is the versioned envelope every persisted structure is stored in.
type Record struct {
	Address solana.PublicKey `json:"address"`
	// Owner is the program id allowed to write the record.
	Owner   solana.PublicKey `json:"owner"`
	Kind    string           `json:"kind"`
	Version uint16           `json:"version"`
	Data    json.RawMessage  `json:"data"`
}

// Encode wraps v in a record envelope.
func Encode(addr, owner solana.PublicKey, kind string, version uint16, v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", kind, err)
	}
	return Record{Address: addr, Owner: owner, Kind: kind, Version: version, Data: data}, nil
}

// Decode unpacks a record of the expected kind written by owner. Records with
// a newer version than maxVersion are refused rather than misread.
func Decode[T any](rec Record, owner solana.PublicKey, kind string, maxVersion uint16) (*T, error) {
	if rec.Kind != kind {
		return nil, fmt.Errorf("record at %s is %q, want %q: %w", rec.Address, rec.Kind, kind, sentinel.ErrInvalidState)
	}
	if !rec.Owner.Equals(owner) {
		return nil, fmt.Errorf("record at %s is owned by %s: %w", rec.Address, rec.Owner, sentinel.ErrInvalidState)
	}
	if rec.Version > maxVersion {
		return nil, fmt.Errorf("record at %s has unsupported version %d: %w", rec.Address, rec.Version, sentinel.ErrInvalidState)
	}
	var out T
	if err := json.Unmarshal(rec.Data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return &out, nil
}
