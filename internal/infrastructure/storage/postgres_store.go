package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

const progressTable = "production_progress"

// PostgresStore persists run snapshots as JSONB rows keyed by record id.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ProgressStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres with the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Create inserts a fresh snapshot row and returns its generated record id.
func (s *PostgresStore) Create(ctx context.Context, entityID, operationType string, snapshot *progress.Record) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("postgres store misconfigured")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	recordID := uuid.NewString()
	query, args, err := s.builder.
		Insert(progressTable).
		Columns("record_id", "entity_id", "operation_type", "snapshot").
		Values(recordID, entityID, operationType, payload).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	return recordID, nil
}

// Load reads a snapshot by record id; (nil, nil) when the row is absent.
func (s *PostgresStore) Load(ctx context.Context, recordID string) (*progress.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("postgres store misconfigured")
	}

	query, args, err := s.builder.
		Select("snapshot").
		From(progressTable).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	var snapshot progress.Record
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// Save overwrites the snapshot of an existing record. Last write wins.
func (s *PostgresStore) Save(ctx context.Context, recordID string, snapshot *progress.Record) error {
	if s.db == nil {
		return fmt.Errorf("postgres store misconfigured")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query, args, err := s.builder.
		Update(progressTable).
		Set("snapshot", payload).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s does not exist", recordID)
	}

	return nil
}

// Delete removes a record. Deleting an absent record is an error so callers
// notice stale ids.
func (s *PostgresStore) Delete(ctx context.Context, recordID string) error {
	if s.db == nil {
		return fmt.Errorf("postgres store misconfigured")
	}

	query, args, err := s.builder.
		Delete(progressTable).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s does not exist", recordID)
	}

	return nil
}
