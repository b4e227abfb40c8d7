package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Change kinds recorded in the journal.
const (
	ChangeRecord  = "record"
	ChangeBalance = "balance"
	ChangeSupply  = "supply"
)

// Change is one state mutation within a committed transaction.
type Change struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
	// Digest is the sha256 of the record envelope for record changes.
	Digest string `json:"digest,omitempty"`
	Before uint64 `json:"before,omitempty"`
	After  uint64 `json:"after,omitempty"`
}

// Entry is a committed transaction in the journal.
type Entry struct {
	Seq         uint64    `json:"seq"`
	PrevHash    string    `json:"prev_hash"`
	Hash        string    `json:"hash"`
	CommittedAt time.Time `json:"committed_at"`
	Changes     []Change  `json:"changes"`
}

// ChainBreak is returned by Verify when the journal does not hash-chain.
type ChainBreak struct {
	Seq    uint64
	Reason string
}

func (e *ChainBreak) Error() string {
	return fmt.Sprintf("journal broken at seq %d: %s", e.Seq, e.Reason)
}

// journalTime is the precision the journal stores, matching Postgres
// timestamptz.
func journalTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func sortChanges(changes []Change) {
	slices.SortFunc(changes, func(a, b Change) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
}

// chainHash links an entry to its predecessor:
// sha256(prev || seq || committed_at || changes).
func chainHash(prev string, seq uint64, at time.Time, changes []Change) (string, error) {
	body, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("encode journal changes: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(prev))
	h.Write(binary.BigEndian.AppendUint64(nil, seq))
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(at.UnixMicro())))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func recordDigest(rec Record) string {
	body, _ := json.Marshal(rec)
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func balanceKey(mint, owner fmt.Stringer) string {
	return mint.String() + "/" + owner.String()
}

// newEntry seals changes onto the chain after prev.
func newEntry(prev *Entry, at time.Time, changes []Change) (Entry, error) {
	sortChanges(changes)
	e := Entry{Seq: 1, CommittedAt: journalTime(at), Changes: changes}
	if prev != nil {
		e.Seq = prev.Seq + 1
		e.PrevHash = prev.Hash
	}
	hash, err := chainHash(e.PrevHash, e.Seq, e.CommittedAt, e.Changes)
	if err != nil {
		return Entry{}, err
	}
	e.Hash = hash
	return e, nil
}

// verifyChain replays entries in order and returns the head hash.
func verifyChain(entries []Entry) (string, error) {
	prevHash := ""
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			return "", &ChainBreak{Seq: e.Seq, Reason: fmt.Sprintf("expected seq %d", i+1)}
		}
		if e.PrevHash != prevHash {
			return "", &ChainBreak{Seq: e.Seq, Reason: "previous hash mismatch"}
		}
		want, err := chainHash(e.PrevHash, e.Seq, e.CommittedAt, e.Changes)
		if err != nil {
			return "", err
		}
		if want != e.Hash {
			return "", &ChainBreak{Seq: e.Seq, Reason: "hash mismatch"}
		}
		prevHash = e.Hash
	}
	return prevHash, nil
}
