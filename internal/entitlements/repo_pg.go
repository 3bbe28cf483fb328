package entitlements

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the user's entitlement row.
func (r *PGRepo) Get(ctx context.Context, userID string) (Record, error) {
	const query = `
SELECT user_id, plan, gen_rate_limit, gen_window_seconds, gen_monthly_limit,
       opt_rate_limit, opt_window_seconds, opt_monthly_limit, allow_export, expires_at,
       created_at, updated_at
FROM user_entitlements
WHERE user_id = $1`
	var (
		rec                            Record
		genRate, genWindow, genMonthly sql.NullInt64
		optRate, optWindow, optMonthly sql.NullInt64
		allowExport                    sql.NullBool
		expiresAt                      sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.Plan,
		&genRate,
		&genWindow,
		&genMonthly,
		&optRate,
		&optWindow,
		&optMonthly,
		&allowExport,
		&expiresAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.GenRateLimit = fromNullInt(genRate)
	rec.GenWindowSeconds = fromNullInt(genWindow)
	rec.GenMonthlyLimit = fromNullInt(genMonthly)
	rec.OptRateLimit = fromNullInt(optRate)
	rec.OptWindowSeconds = fromNullInt(optWindow)
	rec.OptMonthlyLimit = fromNullInt(optMonthly)
	if allowExport.Valid {
		v := allowExport.Bool
		rec.AllowExport = &v
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	return rec, nil
}

// Upsert inserts or updates the user's entitlement row.
func (r *PGRepo) Upsert(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO user_entitlements (
    user_id, plan, gen_rate_limit, gen_window_seconds, gen_monthly_limit,
    opt_rate_limit, opt_window_seconds, opt_monthly_limit, allow_export, expires_at,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id) DO UPDATE SET
    plan = EXCLUDED.plan,
    gen_rate_limit = EXCLUDED.gen_rate_limit,
    gen_window_seconds = EXCLUDED.gen_window_seconds,
    gen_monthly_limit = EXCLUDED.gen_monthly_limit,
    opt_rate_limit = EXCLUDED.opt_rate_limit,
    opt_window_seconds = EXCLUDED.opt_window_seconds,
    opt_monthly_limit = EXCLUDED.opt_monthly_limit,
    allow_export = EXCLUDED.allow_export,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query,
		rec.UserID,
		rec.Plan,
		toNullInt(rec.GenRateLimit),
		toNullInt(rec.GenWindowSeconds),
		toNullInt(rec.GenMonthlyLimit),
		toNullInt(rec.OptRateLimit),
		toNullInt(rec.OptWindowSeconds),
		toNullInt(rec.OptMonthlyLimit),
		toNullBool(rec.AllowExport),
		toNullTime(rec.ExpiresAt),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func toNullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func toNullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
