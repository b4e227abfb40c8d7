package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tollgate/internal/ledger"
	"tollgate/internal/platform/config"
	"tollgate/internal/platform/postgres"
	audit "tollgate/pkg/platform/audit"
	auditpg "tollgate/pkg/platform/audit/store/postgres"
	"tollgate/pkg/platform/audit/store/memory"
	"tollgate/pkg/platform/audit/worker"
)

// backend bundles the ledger with the store its committed events land in.
// outbox is nil for the memory backend, which has nothing to relay.
type backend struct {
	ledger ledger.Ledger
	events audit.Store
	outbox worker.Outbox
	db     *sql.DB
}

func (b *backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func openBackend(ctx context.Context, cfg config.LedgerConfig, metrics *ledger.Metrics, logger *slog.Logger) (*backend, error) {
	switch cfg.Backend {
	case "", "memory":
		events := memory.NewInMemoryStore()
		l := ledger.NewMemory(
			ledger.WithEventStore(events),
			ledger.WithMemoryLogger(logger),
			ledger.WithMemoryMetrics(metrics),
		)
		logger.Info("ledger backend ready", "backend", "memory")
		return &backend{ledger: l, events: events}, nil

	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTables(cfg.Schema)
		if err := postgres.Migrate(ctx, db, tables); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate ledger schema: %w", err)
		}
		outbox := auditpg.New(db, tables.Outbox)
		l, err := ledger.NewPostgres(db, tables, outbox,
			ledger.WithTxTimeout(cfg.TxTimeout),
			ledger.WithPostgresLogger(logger),
			ledger.WithPostgresMetrics(metrics),
		)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("ledger backend ready", "backend", "postgres", "schema", cfg.Schema)
		return &backend{ledger: l, events: outbox, outbox: outbox, db: db}, nil

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
