package profiles

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the user's profile.
func (r *PGRepo) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT user_id, COALESCE(full_name, ''), COALESCE(job_title, ''), COALESCE(professional_summary, ''),
       COALESCE(industry, ''), embellishment_level, data_retention_days, created_at, updated_at
FROM profiles
WHERE user_id = $1`
	var p Profile
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.FullName,
		&p.JobTitle,
		&p.ProfessionalSummary,
		&p.Industry,
		&p.EmbellishmentLevel,
		&p.DataRetentionDays,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// Upsert inserts or replaces the user's profile.
func (r *PGRepo) Upsert(ctx context.Context, p Profile) error {
	const query = `
INSERT INTO profiles (
    user_id, full_name, job_title, professional_summary, industry,
    embellishment_level, data_retention_days, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id) DO UPDATE SET
    full_name = EXCLUDED.full_name,
    job_title = EXCLUDED.job_title,
    professional_summary = EXCLUDED.professional_summary,
    industry = EXCLUDED.industry,
    embellishment_level = EXCLUDED.embellishment_level,
    data_retention_days = EXCLUDED.data_retention_days,
    updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query,
		p.UserID,
		nullString(p.FullName),
		nullString(p.JobTitle),
		nullString(p.ProfessionalSummary),
		nullString(p.Industry),
		p.EmbellishmentLevel,
		p.DataRetentionDays,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

var _ Repo = (*PGRepo)(nil)
