package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert appends a run record.
func (r *PGRepo) Insert(ctx context.Context, record Record) error {
	metadata := record.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal run metadata: %w", err)
	}
	const query = `
INSERT INTO ai_runs (
    id, user_id, run_type, provider, model, tokens_input, tokens_output, cost_usd, status, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.DB.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		string(record.Type),
		record.Provider,
		record.Model,
		nullableInt(record.TokensInput),
		nullableInt(record.TokensOutput),
		nullableFloat(record.CostUSD),
		string(record.Status),
		metaJSON,
		record.CreatedAt,
	)
	return err
}

// Stats counts matching runs and returns the earliest timestamp and summed cost.
func (r *PGRepo) Stats(ctx context.Context, filter Filter) (Stats, error) {
	const query = `
SELECT COUNT(*), MIN(created_at), COALESCE(SUM(cost_usd), 0)::float8
FROM ai_runs
WHERE user_id = $1 AND run_type = $2 AND status = $3 AND created_at >= $4`
	var (
		out      Stats
		earliest sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query,
		filter.UserID,
		string(filter.Type),
		string(filter.Status),
		filter.Since,
	).Scan(&out.Count, &earliest, &out.CostUSD)
	if err != nil {
		return Stats{}, err
	}
	if earliest.Valid {
		out.Earliest = earliest.Time
	}
	return out, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

var _ Repo = (*PGRepo)(nil)
