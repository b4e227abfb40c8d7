package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
)

type holding struct {
	mint  solana.PublicKey
	owner solana.PublicKey
}

// Memory is an in-process ledger. A single mutex serializes transactions;
// writes are staged on the transaction and applied only on success.
type Memory struct {
	mu       sync.Mutex
	records  map[solana.PublicKey]Record
	balances map[holding]uint64
	supply   map[solana.PublicKey]uint64
	journal  []Entry

	events  audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type MemoryOption func(*Memory)

// WithEventStore sets where committed events are appended.
func WithEventStore(store audit.Store) MemoryOption {
	return func(m *Memory) { m.events = store }
}

func WithMemoryLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) { m.logger = logger }
}

func WithMemoryMetrics(metrics *Metrics) MemoryOption {
	return func(m *Memory) { m.metrics = metrics }
}

// WithClock overrides the journal timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		records:  make(map[solana.PublicKey]Record),
		balances: make(map[holding]uint64),
		supply:   make(map[solana.PublicKey]uint64),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Execute(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	defer func() { m.metrics.observe("memory", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		base:     m,
		records:  make(map[solana.PublicKey]Record),
		balances: make(map[holding]uint64),
		supply:   make(map[solana.PublicKey]uint64),
		touched:  make(map[holding]uint64),
		minted:   make(map[solana.PublicKey]uint64),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := m.commit(ctx, tx); err != nil {
		return err
	}
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

func (m *Memory) commit(ctx context.Context, tx *memTx) error {
	changes := tx.changes()
	if len(changes) > 0 {
		var prev *Entry
		if n := len(m.journal); n > 0 {
			prev = &m.journal[n-1]
		}
		entry, err := newEntry(prev, m.now(), changes)
		if err != nil {
			return err
		}
		m.journal = append(m.journal, entry)
	}

	for addr, rec := range tx.records {
		m.records[addr] = rec
	}
	for h, amount := range tx.balances {
		m.balances[h] = amount
	}
	for mint, amount := range tx.supply {
		m.supply[mint] = amount
	}

	if m.events != nil {
		for _, ev := range tx.events {
			if err := m.events.Append(ctx, ev); err != nil {
				m.logger.ErrorContext(ctx, "failed to append committed event", "action", ev.Action, "error", err)
			}
		}
	}
	return nil
}

func (m *Memory) Verify(ctx context.Context) (Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	head, err := verifyChain(m.journal)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{
		Entries:  uint64(len(m.journal)),
		Head:     head,
		Checked:  time.Now().UTC(),
		Supply:   make(map[string]uint64),
		Balances: make(map[string]uint64),
	}
	for mint, s := range m.supply {
		v.Supply[mint.String()] = s
	}
	for h, b := range m.balances {
		v.Balances[h.mint.String()] += b
	}
	return v, nil
}

// Journal returns a copy of the committed journal.
func (m *Memory) Journal() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.journal...)
}

type memTx struct {
	base     *Memory
	records  map[solana.PublicKey]Record
	order    []solana.PublicKey
	balances map[holding]uint64
	supply   map[solana.PublicKey]uint64
	// touched keeps the committed balance of every holding the tx changed.
	touched map[holding]uint64
	minted  map[solana.PublicKey]uint64
	events  []audit.Event
	hooks   []func()
}

func (t *memTx) Get(_ context.Context, addr solana.PublicKey) (Record, error) {
	if rec, ok := t.records[addr]; ok {
		return rec, nil
	}
	if rec, ok := t.base.records[addr]; ok {
		return rec, nil
	}
	return Record{}, fmt.Errorf("record %s: %w", addr, sentinel.ErrNotFound)
}

func (t *memTx) Create(ctx context.Context, rec Record) error {
	if _, err := t.Get(ctx, rec.Address); err == nil {
		return fmt.Errorf("record %s: %w", rec.Address, sentinel.ErrConflict)
	}
	t.put(rec)
	return nil
}

func (t *memTx) Update(ctx context.Context, rec Record) error {
	cur, err := t.Get(ctx, rec.Address)
	if err != nil {
		return err
	}
	if !cur.Owner.Equals(rec.Owner) {
		return fmt.Errorf("record %s owned by %s: %w", rec.Address, cur.Owner, sentinel.ErrNotFound)
	}
	t.put(rec)
	return nil
}

func (t *memTx) put(rec Record) {
	if _, ok := t.records[rec.Address]; !ok {
		t.order = append(t.order, rec.Address)
	}
	t.records[rec.Address] = rec
}

func (t *memTx) Balance(_ context.Context, mint, owner solana.PublicKey) (uint64, error) {
	return t.balance(holding{mint, owner}), nil
}

func (t *memTx) balance(h holding) uint64 {
	if b, ok := t.balances[h]; ok {
		return b
	}
	return t.base.balances[h]
}

func (t *memTx) setBalance(h holding, amount uint64) {
	if _, ok := t.touched[h]; !ok {
		t.touched[h] = t.base.balances[h]
	}
	t.balances[h] = amount
}

func (t *memTx) Supply(_ context.Context, mint solana.PublicKey) (uint64, error) {
	return t.supplyOf(mint), nil
}

func (t *memTx) supplyOf(mint solana.PublicKey) uint64 {
	if s, ok := t.supply[mint]; ok {
		return s
	}
	return t.base.supply[mint]
}

func (t *memTx) setSupply(mint solana.PublicKey, amount uint64) {
	if _, ok := t.minted[mint]; !ok {
		t.minted[mint] = t.base.supply[mint]
	}
	t.supply[mint] = amount
}

func (t *memTx) Transfer(_ context.Context, mint, from, to solana.PublicKey, amount uint64) error {
	src := holding{mint, from}
	have := t.balance(src)
	if amount > have {
		return fmt.Errorf("debit %d from %s holding %d: %w", amount, from, have, sentinel.ErrInsufficientFunds)
	}
	if from.Equals(to) {
		return nil
	}
	dst := holding{mint, to}
	credited, carry := bits.Add64(t.balance(dst), amount, 0)
	if carry != 0 {
		return fmt.Errorf("credit %s: %w", to, sentinel.ErrOverflow)
	}
	t.setBalance(src, have-amount)
	t.setBalance(dst, credited)
	return nil
}

func (t *memTx) Mint(_ context.Context, mint, to solana.PublicKey, amount uint64) error {
	supply, carry := bits.Add64(t.supplyOf(mint), amount, 0)
	if carry != 0 {
		return fmt.Errorf("mint %d: %w", amount, sentinel.ErrOverflow)
	}
	dst := holding{mint, to}
	t.setSupply(mint, supply)
	t.setBalance(dst, t.balance(dst)+amount)
	return nil
}

func (t *memTx) Burn(_ context.Context, mint, from solana.PublicKey, amount uint64) error {
	src := holding{mint, from}
	have := t.balance(src)
	if amount > have {
		return fmt.Errorf("burn %d from %s holding %d: %w", amount, from, have, sentinel.ErrInsufficientFunds)
	}
	t.setBalance(src, have-amount)
	t.setSupply(mint, t.supplyOf(mint)-amount)
	return nil
}

func (t *memTx) Emit(event audit.Event) {
	t.events = append(t.events, event)
}

func (t *memTx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

func (t *memTx) changes() []Change {
	var out []Change
	for _, addr := range t.order {
		out = append(out, Change{Kind: ChangeRecord, Key: addr.String(), Digest: recordDigest(t.records[addr])})
	}
	for h, before := range t.touched {
		after := t.balances[h]
		if after == before {
			continue
		}
		out = append(out, Change{Kind: ChangeBalance, Key: balanceKey(h.mint, h.owner), Before: before, After: after})
	}
	for mint, before := range t.minted {
		after := t.supply[mint]
		if after == before {
			continue
		}
		out = append(out, Change{Kind: ChangeSupply, Key: mint.String(), Before: before, After: after})
	}
	return out
}
