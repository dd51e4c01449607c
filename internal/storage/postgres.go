package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/deusflow/cryptofeed/internal/retry"
	"github.com/lib/pq"
)

const dailyKey = "last_daily_summary"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps the record in two tables.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore connects, retrying the ping, and creates the schema.
func NewPostgresStore(ctx context.Context, connectionString string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = retry.WithRetry(ctx, retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db, logger: logger}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info("✅ PostgreSQL state store connected")
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS published_items (
		id VARCHAR(64) PRIMARY KEY,
		seq BIGINT NOT NULL,
		published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_published_items_seq ON published_items(seq);

	CREATE TABLE IF NOT EXISTS bot_state (
		key VARCHAR(64) PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Load(ctx context.Context) (Record, error) {
	var rec Record

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM published_items ORDER BY seq`)
	if err != nil {
		return Record{}, fmt.Errorf("query published: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Record{}, fmt.Errorf("scan id: %w", err)
		}
		rec.Published = append(rec.Published, id)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("rows iteration: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT value FROM bot_state WHERE key = $1`, dailyKey).Scan(&rec.LastDailySummary)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("query daily date: %w", err)
	}
	return rec, nil
}

// Save replaces the stored record in one transaction. seq follows the
// record order so Load returns identifiers in insertion order.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if len(rec.Published) > 0 {
		query, args, err := upsertPublished(rec.Published)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert published: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM published_items WHERE NOT (id = ANY($1))`, pq.StringArray(nonNil(rec.Published))); err != nil {
		return fmt.Errorf("evict published: %w", err)
	}

	query, args, err := upsertDaily(rec.LastDailySummary)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert daily date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsertPublished(ids []string) (string, []interface{}, error) {
	b := psql.Insert("published_items").Columns("id", "seq")
	for i, id := range ids {
		b = b.Values(id, i)
	}
	return b.Suffix("ON CONFLICT (id) DO UPDATE SET seq = EXCLUDED.seq").ToSql()
}

func upsertDaily(date string) (string, []interface{}, error) {
	return psql.Insert("bot_state").
		Columns("key", "value").
		Values(dailyKey, date).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
