// Package postgres opens the database used by the ledger and the audit
// outbox and owns their schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/lib/pq"
)

// Open connects with the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Tables are the quoted, schema qualified names of every table.
type Tables struct {
	Schema   string
	Records  string
	Balances string
	Supply   string
	Journal  string
	Outbox   string
}

// NewTables qualifies table names with schema. An empty schema uses the
// connection's search_path.
func NewTables(schema string) Tables {
	q := func(name string) string {
		if schema == "" {
			return pq.QuoteIdentifier(name)
		}
		return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
	}
	return Tables{
		Schema:   schema,
		Records:  q("ledger_records"),
		Balances: q("ledger_balances"),
		Supply:   q("ledger_supply"),
		Journal:  q("ledger_journal"),
		Outbox:   q("outbox"),
	}
}

// All lists the tables in dependency-free order, for truncation in tests.
func (t Tables) All() []string {
	return []string{t.Records, t.Balances, t.Supply, t.Journal, t.Outbox}
}

// Migrate creates the schema if it does not exist. Statements are
// idempotent.
func Migrate(ctx context.Context, db *sql.DB, t Tables) error {
	var stmts []string
	if t.Schema != "" {
		stmts = append(stmts, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(t.Schema))
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			address    TEXT PRIMARY KEY,
			owner      TEXT NOT NULL,
			kind       TEXT NOT NULL,
			version    INTEGER NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Records),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			mint   TEXT NOT NULL,
			owner  TEXT NOT NULL,
			amount NUMERIC(20, 0) NOT NULL CHECK (amount >= 0),
			PRIMARY KEY (mint, owner)
		)`, t.Balances),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			mint   TEXT PRIMARY KEY,
			amount NUMERIC(20, 0) NOT NULL CHECK (amount >= 0)
		)`, t.Supply),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq          BIGINT PRIMARY KEY,
			prev_hash    TEXT NOT NULL,
			hash         TEXT NOT NULL UNIQUE,
			committed_at TIMESTAMPTZ NOT NULL,
			changes      JSONB NOT NULL
		)`, t.Journal),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id             UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			event_type     TEXT NOT NULL,
			payload        JSONB NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			published_at   TIMESTAMPTZ
		)`, t.Outbox),
	)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
