package domain

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/gagliardetto/solana-go"
)

// AddressSet is a set of addresses with O(1) membership. It serializes as a
// sorted list so encoded records are deterministic.
type AddressSet map[solana.PublicKey]struct{}

func NewAddressSet(addrs ...solana.PublicKey) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

// Has is safe on a nil set.
func (s AddressSet) Has(addr solana.PublicKey) bool {
	_, ok := s[addr]
	return ok
}

func (s AddressSet) Len() int { return len(s) }

// Add inserts addr and reports whether the set changed.
func (s *AddressSet) Add(addr solana.PublicKey) bool {
	if *s == nil {
		*s = AddressSet{}
	}
	if _, ok := (*s)[addr]; ok {
		return false
	}
	(*s)[addr] = struct{}{}
	return true
}

// Remove deletes addr and reports whether the set changed.
func (s *AddressSet) Remove(addr solana.PublicKey) bool {
	if _, ok := (*s)[addr]; !ok {
		return false
	}
	delete(*s, addr)
	return true
}

// Toggle adds addr when enabled is true and removes it otherwise.
func (s *AddressSet) Toggle(addr solana.PublicKey, enabled bool) bool {
	if enabled {
		return s.Add(addr)
	}
	return s.Remove(addr)
}

// Sorted returns the members ordered by their raw bytes.
func (s AddressSet) Sorted() []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b solana.PublicKey) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

func (s AddressSet) Clone() AddressSet {
	out := make(AddressSet, len(s))
	for a := range s {
		out[a] = struct{}{}
	}
	return out
}

func (s AddressSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *AddressSet) UnmarshalJSON(data []byte) error {
	var list []solana.PublicKey
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewAddressSet(list...)
	return nil
}
