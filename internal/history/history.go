// Package history persists composed score results so past runs can be
// inspected as a trend. The engine itself never writes here; the server
// records results after composing them.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/riskscope/riskscope/internal/scoring"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("score record not found")

// Record is one stored scoring run.
type Record struct {
	ID        uuid.UUID            `json:"id"`
	Subject   string               `json:"subject"`
	Result    *scoring.ScoreResult `json:"result"`
	CreatedAt time.Time            `json:"created_at"`
}

// Store is the score-history persistence interface. Both MemoryStore and
// PostgresStore implement it.
type Store interface {
	// Save assigns the record an ID and timestamp and persists it.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// List returns the most recent records, newest first, optionally
	// filtered by subject (empty = all subjects).
	List(ctx context.Context, subject string, limit int) ([]*Record, error)
}
