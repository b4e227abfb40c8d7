package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "tollgate/pkg/platform/audit"
	txcontext "tollgate/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Append joins the ledger transaction carried in the context, so an event is
// written if and only if the state change that produced it commits. The
// relay worker later publishes unpublished rows to Kafka.
type Store struct {
	db    *sql.DB
	table string
}

// New creates an outbox store. table is the (optionally schema qualified and
// quoted) outbox table name.
func New(db *sql.DB, table string) *Store {
	if table == "" {
		table = "outbox"
	}
	return &Store{db: db, table: table}
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateID := event.Subject
	if aggregateID == "" {
		aggregateID = event.ID.String()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.table)
	_, err = txcontext.Use(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		aggregateID,
		event.Action,
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := fmt.Sprintf(`
		SELECT payload FROM %s
		ORDER BY created_at DESC, id
		LIMIT $1
	`, s.table)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox payload: %w", err)
		}
		var ev audit.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode outbox payload: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return events, nil
}

// FetchUnpublished returns up to limit rows that have not been relayed yet,
// oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM %s
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, s.table)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished outbox: %w", err)
	}
	defer rows.Close()

	var entries []audit.OutboxEntry
	for rows.Next() {
		var e audit.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given rows as relayed.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := fmt.Sprintf(`UPDATE %s SET published_at = $1 WHERE id = ANY($2::uuid[])`, s.table)
	if _, err := s.db.ExecContext(ctx, query, at, raw); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
