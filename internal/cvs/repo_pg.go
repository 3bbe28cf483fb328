package cvs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const cvColumns = `id, user_id, title, text_content, is_reference, created_at, updated_at`

// Create inserts a CV, clearing any other reference first when it is one.
func (r *PGRepo) Create(ctx context.Context, cv CV) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if cv.IsReference {
		if _, err := tx.ExecContext(ctx,
			`UPDATE cvs SET is_reference = FALSE, updated_at = $2 WHERE user_id = $1 AND is_reference`,
			cv.UserID, cv.UpdatedAt); err != nil {
			return err
		}
	}
	const query = `
INSERT INTO cvs (` + cvColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query,
		cv.ID, cv.UserID, cv.Title, cv.TextContent, cv.IsReference, cv.CreatedAt, cv.UpdatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns a CV owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, id string) (CV, error) {
	const query = `SELECT ` + cvColumns + ` FROM cvs WHERE id = $1 AND user_id = $2`
	return scanCV(r.DB.QueryRowContext(ctx, query, id, userID))
}

// List returns a user's CVs, newest first.
func (r *PGRepo) List(ctx context.Context, userID string) ([]CV, error) {
	const query = `SELECT ` + cvColumns + ` FROM cvs WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CV{}
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// Reference returns the user's reference CV.
func (r *PGRepo) Reference(ctx context.Context, userID string) (CV, error) {
	const query = `SELECT ` + cvColumns + ` FROM cvs WHERE user_id = $1 AND is_reference LIMIT 1`
	return scanCV(r.DB.QueryRowContext(ctx, query, userID))
}

// SetReference makes id the only reference CV of userID.
func (r *PGRepo) SetReference(ctx context.Context, userID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE cvs SET is_reference = FALSE, updated_at = $2 WHERE user_id = $1 AND is_reference AND id <> $3`,
		userID, now, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE cvs SET is_reference = TRUE, updated_at = $3 WHERE user_id = $1 AND id = $2`,
		userID, id, now)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// InsertOptimized stores an optimization result.
func (r *PGRepo) InsertOptimized(ctx context.Context, opt OptimizedCV) error {
	changes, err := json.Marshal(opt.ChangesSummary)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	recs, err := json.Marshal(opt.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	const query = `
INSERT INTO optimized_cvs (
    id, user_id, cv_id, optimized_text, changes_summary, overall_confidence,
    recommendations, embellishment_level, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.ExecContext(ctx, query,
		opt.ID,
		opt.UserID,
		opt.CVID,
		opt.OptimizedText,
		changes,
		nullFloat(opt.OverallConfidence),
		recs,
		opt.EmbellishmentLevel,
		opt.CreatedAt,
	)
	return err
}

// LatestOptimized returns the newest optimization of cvID.
func (r *PGRepo) LatestOptimized(ctx context.Context, userID, cvID string) (OptimizedCV, error) {
	const query = `
SELECT id, user_id, cv_id, optimized_text, changes_summary, overall_confidence,
       recommendations, embellishment_level, created_at
FROM optimized_cvs
WHERE user_id = $1 AND cv_id = $2
ORDER BY created_at DESC
LIMIT 1`
	var (
		opt        OptimizedCV
		changes    []byte
		recs       []byte
		confidence sql.NullFloat64
	)
	err := r.DB.QueryRowContext(ctx, query, userID, cvID).Scan(
		&opt.ID,
		&opt.UserID,
		&opt.CVID,
		&opt.OptimizedText,
		&changes,
		&confidence,
		&recs,
		&opt.EmbellishmentLevel,
		&opt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OptimizedCV{}, ErrNotFound
		}
		return OptimizedCV{}, err
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &opt.ChangesSummary); err != nil {
			return OptimizedCV{}, fmt.Errorf("decode changes: %w", err)
		}
	}
	if len(recs) > 0 {
		if err := json.Unmarshal(recs, &opt.Recommendations); err != nil {
			return OptimizedCV{}, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	if confidence.Valid {
		v := confidence.Float64
		opt.OverallConfidence = &v
	}
	return opt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCV(row rowScanner) (CV, error) {
	var cv CV
	err := row.Scan(&cv.ID, &cv.UserID, &cv.Title, &cv.TextContent, &cv.IsReference, &cv.CreatedAt, &cv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CV{}, ErrNotFound
		}
		return CV{}, err
	}
	return cv, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
