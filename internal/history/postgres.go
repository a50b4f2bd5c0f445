package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riskscope/riskscope/internal/scoring"
	"go.uber.org/zap"
)

// Schema is the DDL for the score history table. The server applies it at
// startup; it is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS score_history (
    id         UUID PRIMARY KEY,
    subject    TEXT NOT NULL,
    formula    TEXT NOT NULL,
    score      INTEGER NOT NULL,
    grade      TEXT NOT NULL,
    result     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS score_history_subject_idx
    ON score_history (subject, created_at DESC);
`

// PostgresStore persists score history to PostgreSQL. It implements Store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate applies the score history schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply score_history schema: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal score result: %w", err)
	}

	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().UTC()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_history (id, subject, formula, score, grade, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Subject, rec.Result.FormulaVersion,
		rec.Result.Score, rec.Result.Grade, payload, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}

	s.logger.Debug("score record saved",
		zap.String("id", rec.ID.String()),
		zap.String("subject", rec.Subject),
		zap.Int("score", rec.Result.Score),
	)
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, subject, result, created_at FROM score_history WHERE id = $1`, id)
	return scanRecord(row)
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, subject string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, subject, result, created_at FROM score_history`
	args := []any{}
	if subject != "" {
		query += ` WHERE subject = $1`
		args = append(args, subject)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list score records: %w", err)
	}
	defer rows.Close()

	out := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var payload []byte
	if err := row.Scan(&rec.ID, &rec.Subject, &payload, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan score record: %w", err)
	}

	rec.Result = &scoring.ScoreResult{}
	if err := json.Unmarshal(payload, rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshal score result: %w", err)
	}
	return &rec, nil
}
