package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"tollgate/internal/platform/postgres"
	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/platform/sentinel"
	txcontext "tollgate/pkg/platform/tx"
)

// ledgerLockKey is the advisory lock every transaction takes first. Holding
// it for the life of the SQL transaction gives the ledger its one-at-a-time
// execution across processes.
const ledgerLockKey int64 = 0x746f6c6c67617465

const defaultTxTimeout = 5 * time.Second

// Postgres is the durable ledger. Each Execute runs in one SQL transaction
// serialized by an advisory lock; events are written to the outbox table in
// the same transaction.
type Postgres struct {
	db      *sql.DB
	tables  postgres.Tables
	outbox  audit.Store
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

type PostgresOption func(*Postgres)

func WithTxTimeout(d time.Duration) PostgresOption {
	return func(p *Postgres) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithPostgresLogger(logger *slog.Logger) PostgresOption {
	return func(p *Postgres) { p.logger = logger }
}

func WithPostgresMetrics(metrics *Metrics) PostgresOption {
	return func(p *Postgres) { p.metrics = metrics }
}

// NewPostgres builds the ledger. outbox must write through the transaction
// found in its context (see pkg/platform/audit/store/postgres).
func NewPostgres(db *sql.DB, tables postgres.Tables, outbox audit.Store, opts ...PostgresOption) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if outbox == nil {
		return nil, errors.New("outbox store is required")
	}
	p := &Postgres{
		db:      db,
		tables:  tables,
		outbox:  outbox,
		timeout: defaultTxTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Postgres) Execute(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	start := time.Now()
	defer func() { p.metrics.observe("postgres", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if _, err := sqlTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	ctx = txcontext.WithTx(ctx, sqlTx)
	tx := &pgTx{tx: sqlTx, tables: p.tables, records: map[string]Change{}, touched: map[string]Change{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if changes := tx.changes(); len(changes) > 0 {
		if err := p.appendJournal(ctx, sqlTx, changes); err != nil {
			return err
		}
	}
	for _, ev := range tx.events {
		if err := p.outbox.Append(ctx, ev); err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	committed = true
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

func (p *Postgres) appendJournal(ctx context.Context, sqlTx *sql.Tx, changes []Change) error {
	var prev *Entry
	var head Entry
	err := sqlTx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT seq, hash FROM %s ORDER BY seq DESC LIMIT 1`, p.tables.Journal),
	).Scan(&head.Seq, &head.Hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read journal head: %w", err)
	default:
		prev = &head
	}

	entry, err := newEntry(prev, time.Now(), changes)
	if err != nil {
		return err
	}
	body, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode journal changes: %w", err)
	}
	_, err = sqlTx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (seq, prev_hash, hash, committed_at, changes) VALUES ($1, $2, $3, $4, $5)`, p.tables.Journal),
		int64(entry.Seq), entry.PrevHash, entry.Hash, entry.CommittedAt, body,
	)
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Verify replays the journal and totals balances against supply. It reads in
// a ledger transaction so the snapshot is consistent.
func (p *Postgres) Verify(ctx context.Context) (Verification, error) {
	var v Verification
	err := p.Execute(ctx, func(ctx context.Context, _ Tx) error {
		sqlTx, _ := txcontext.From(ctx)
		entries, err := p.readJournal(ctx, sqlTx)
		if err != nil {
			return err
		}
		head, err := verifyChain(entries)
		if err != nil {
			return err
		}
		v = Verification{
			Entries:  uint64(len(entries)),
			Head:     head,
			Checked:  time.Now().UTC(),
			Supply:   map[string]uint64{},
			Balances: map[string]uint64{},
		}
		if err := sumInto(ctx, sqlTx, fmt.Sprintf(`SELECT mint, amount::text FROM %s`, p.tables.Supply), v.Supply); err != nil {
			return err
		}
		return sumInto(ctx, sqlTx, fmt.Sprintf(`SELECT mint, SUM(amount)::text FROM %s GROUP BY mint`, p.tables.Balances), v.Balances)
	})
	return v, err
}

func (p *Postgres) readJournal(ctx context.Context, sqlTx *sql.Tx) ([]Entry, error) {
	rows, err := sqlTx.QueryContext(ctx,
		fmt.Sprintf(`SELECT seq, prev_hash, hash, committed_at, changes FROM %s ORDER BY seq`, p.tables.Journal))
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			seq  int64
			body []byte
		)
		if err := rows.Scan(&seq, &e.PrevHash, &e.Hash, &e.CommittedAt, &body); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Seq = uint64(seq)
		e.CommittedAt = journalTime(e.CommittedAt)
		if err := json.Unmarshal(body, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode journal entry %d: %w", seq, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func sumInto(ctx context.Context, sqlTx *sql.Tx, query string, into map[string]uint64) error {
	rows, err := sqlTx.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mint, raw string
		if err := rows.Scan(&mint, &raw); err != nil {
			return fmt.Errorf("scan totals: %w", err)
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse total for %s: %w", mint, err)
		}
		into[mint] = n
	}
	return rows.Err()
}

type pgTx struct {
	tx      *sql.Tx
	tables  postgres.Tables
	// records keeps the last digest written per address.
	records     map[string]Change
	recordOrder []string
	// touched keeps the first observed value of each balance/supply key so
	// the journal records before and after.
	touched map[string]Change
	order   []string
	events  []audit.Event
	hooks   []func()
}

func (t *pgTx) Get(ctx context.Context, addr solana.PublicKey) (Record, error) {
	var (
		owner, kind string
		version     int
		data        []byte
	)
	err := t.tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT owner, kind, version, data FROM %s WHERE address = $1`, t.tables.Records),
		addr.String(),
	).Scan(&owner, &kind, &version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("record %s: %w", addr, sentinel.ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("read record %s: %w", addr, err)
	}
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return Record{}, fmt.Errorf("record %s has invalid owner: %w", addr, err)
	}
	return Record{Address: addr, Owner: ownerKey, Kind: kind, Version: uint16(version), Data: data}, nil
}

func (t *pgTx) Create(ctx context.Context, rec Record) error {
	res, err := t.tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (address, owner, kind, version, data) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (address) DO NOTHING`, t.tables.Records),
		rec.Address.String(), rec.Owner.String(), rec.Kind, int(rec.Version), []byte(rec.Data),
	)
	if err != nil {
		return fmt.Errorf("create record %s: %w", rec.Address, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", rec.Address, sentinel.ErrConflict)
	}
	t.recordChange(rec)
	return nil
}

func (t *pgTx) Update(ctx context.Context, rec Record) error {
	res, err := t.tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET kind = $3, version = $4, data = $5, updated_at = now()
			WHERE address = $1 AND owner = $2`, t.tables.Records),
		rec.Address.String(), rec.Owner.String(), rec.Kind, int(rec.Version), []byte(rec.Data),
	)
	if err != nil {
		return fmt.Errorf("update record %s: %w", rec.Address, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", rec.Address, sentinel.ErrNotFound)
	}
	t.recordChange(rec)
	return nil
}

func (t *pgTx) recordChange(rec Record) {
	key := rec.Address.String()
	if _, ok := t.records[key]; !ok {
		t.recordOrder = append(t.recordOrder, key)
	}
	t.records[key] = Change{Kind: ChangeRecord, Key: key, Digest: recordDigest(rec)}
}

func (t *pgTx) Balance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error) {
	return t.readAmount(ctx,
		fmt.Sprintf(`SELECT amount::text FROM %s WHERE mint = $1 AND owner = $2`, t.tables.Balances),
		mint.String(), owner.String())
}

func (t *pgTx) Supply(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	return t.readAmount(ctx,
		fmt.Sprintf(`SELECT amount::text FROM %s WHERE mint = $1`, t.tables.Supply),
		mint.String())
}

func (t *pgTx) readAmount(ctx context.Context, query string, args ...any) (uint64, error) {
	var raw string
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read amount: %w", err)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return n, nil
}

func (t *pgTx) setBalance(ctx context.Context, mint, owner solana.PublicKey, before, after uint64) error {
	_, err := t.tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (mint, owner, amount) VALUES ($1, $2, $3::numeric)
			ON CONFLICT (mint, owner) DO UPDATE SET amount = EXCLUDED.amount`, t.tables.Balances),
		mint.String(), owner.String(), strconv.FormatUint(after, 10),
	)
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	t.track(ChangeBalance, balanceKey(mint, owner), before, after)
	return nil
}

func (t *pgTx) setSupply(ctx context.Context, mint solana.PublicKey, before, after uint64) error {
	_, err := t.tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (mint, amount) VALUES ($1, $2::numeric)
			ON CONFLICT (mint) DO UPDATE SET amount = EXCLUDED.amount`, t.tables.Supply),
		mint.String(), strconv.FormatUint(after, 10),
	)
	if err != nil {
		return fmt.Errorf("write supply: %w", err)
	}
	t.track(ChangeSupply, mint.String(), before, after)
	return nil
}

func (t *pgTx) track(kind, key string, before, after uint64) {
	id := kind + ":" + key
	c, ok := t.touched[id]
	if !ok {
		c = Change{Kind: kind, Key: key, Before: before}
		t.order = append(t.order, id)
	}
	c.After = after
	t.touched[id] = c
}

func (t *pgTx) Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
	have, err := t.Balance(ctx, mint, from)
	if err != nil {
		return err
	}
	if amount > have {
		return fmt.Errorf("debit %d from %s holding %d: %w", amount, from, have, sentinel.ErrInsufficientFunds)
	}
	if from.Equals(to) {
		return nil
	}
	dst, err := t.Balance(ctx, mint, to)
	if err != nil {
		return err
	}
	credited, carry := bits.Add64(dst, amount, 0)
	if carry != 0 {
		return fmt.Errorf("credit %s: %w", to, sentinel.ErrOverflow)
	}
	if err := t.setBalance(ctx, mint, from, have, have-amount); err != nil {
		return err
	}
	return t.setBalance(ctx, mint, to, dst, credited)
}

func (t *pgTx) Mint(ctx context.Context, mint, to solana.PublicKey, amount uint64) error {
	supply, err := t.Supply(ctx, mint)
	if err != nil {
		return err
	}
	next, carry := bits.Add64(supply, amount, 0)
	if carry != 0 {
		return fmt.Errorf("mint %d: %w", amount, sentinel.ErrOverflow)
	}
	dst, err := t.Balance(ctx, mint, to)
	if err != nil {
		return err
	}
	if err := t.setSupply(ctx, mint, supply, next); err != nil {
		return err
	}
	return t.setBalance(ctx, mint, to, dst, dst+amount)
}

func (t *pgTx) Burn(ctx context.Context, mint, from solana.PublicKey, amount uint64) error {
	have, err := t.Balance(ctx, mint, from)
	if err != nil {
		return err
	}
	if amount > have {
		return fmt.Errorf("burn %d from %s holding %d: %w", amount, from, have, sentinel.ErrInsufficientFunds)
	}
	supply, err := t.Supply(ctx, mint)
	if err != nil {
		return err
	}
	if err := t.setBalance(ctx, mint, from, have, have-amount); err != nil {
		return err
	}
	return t.setSupply(ctx, mint, supply, supply-amount)
}

func (t *pgTx) Emit(event audit.Event) {
	t.events = append(t.events, event)
}

func (t *pgTx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

func (t *pgTx) changes() []Change {
	var out []Change
	for _, key := range t.recordOrder {
		out = append(out, t.records[key])
	}
	for _, id := range t.order {
		c := t.touched[id]
		if c.Before != c.After {
			out = append(out, c)
		}
	}
	return out
}
