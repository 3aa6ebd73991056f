package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository allocates year-scoped monotonic counters.
type SequenceRepository struct {
	db *sqlx.DB
}

func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next atomically increments the named counter for year and returns the new value.
// The first allocation of a year yields 1.
func (r *SequenceRepository) Next(ctx context.Context, exec sqlx.ExtContext, name string, year int) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `INSERT INTO sequences (name, year, value) VALUES ($1, $2, 1)
ON CONFLICT (name, year) DO UPDATE SET value = sequences.value + 1
RETURNING value`
	var value int64
	if err := sqlx.GetContext(ctx, exec, &value, query, name, year); err != nil {
		return 0, fmt.Errorf("next sequence %s/%d: %w", name, year, err)
	}
	return value, nil
}
