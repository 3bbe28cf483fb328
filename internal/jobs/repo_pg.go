package jobs

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a job description.
func (r *PGRepo) Create(ctx context.Context, job JobDescription) error {
	const query = `
INSERT INTO job_descriptions (id, user_id, title, company, text_content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		nullString(job.Title),
		nullString(job.Company),
		job.TextContent,
		job.CreatedAt,
	)
	return err
}

// Count returns how many job descriptions the user stores.
func (r *PGRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_descriptions WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// List returns the user's job descriptions, newest first.
func (r *PGRepo) List(ctx context.Context, userID string) ([]JobDescription, error) {
	const query = `
SELECT id, user_id, COALESCE(title, ''), COALESCE(company, ''), text_content, created_at
FROM job_descriptions
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// Delete removes a job description owned by userID.
func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM job_descriptions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMany returns the user's jobs among ids, in the order of ids.
func (r *PGRepo) GetMany(ctx context.Context, userID string, ids []string) ([]JobDescription, error) {
	if len(ids) == 0 {
		return []JobDescription{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = "$" + strconv.Itoa(i+2)
	}
	query := `
SELECT id, user_id, COALESCE(title, ''), COALESCE(company, ''), text_content, created_at
FROM job_descriptions
WHERE user_id = $1 AND id IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]JobDescription, len(found))
	for _, job := range found {
		byID[job.ID] = job
	}
	out := make([]JobDescription, 0, len(found))
	for _, id := range ids {
		if job, ok := byID[id]; ok {
			out = append(out, job)
			delete(byID, id)
		}
	}
	return out, nil
}

func scanJobs(rows *sql.Rows) ([]JobDescription, error) {
	out := []JobDescription{}
	for rows.Next() {
		var job JobDescription
		if err := rows.Scan(&job.ID, &job.UserID, &job.Title, &job.Company, &job.TextContent, &job.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
