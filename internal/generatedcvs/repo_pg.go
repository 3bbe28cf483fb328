package generatedcvs

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, cv_id, jd_id, tailored_text, COALESCE(optimization_notes, ''), match_score, status, created_at, updated_at`

const sectionColumns = `id, user_id, generated_cv_id, section_name, original_text, suggested_text, final_text, COALESCE(rationale, ''), status, ordering, created_at, updated_at`

// CreateWithSections inserts the document and bulk-inserts its sections in one transaction.
func (r *PGRepo) CreateWithSections(ctx context.Context, doc Document, sections []Section) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insertDoc = `
INSERT INTO generated_cvs (
    id, user_id, cv_id, jd_id, tailored_text, optimization_notes, match_score, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.ExecContext(ctx, insertDoc,
		doc.ID,
		doc.UserID,
		doc.CVID,
		doc.JobID,
		doc.TailoredText,
		nullString(doc.OptimizationNotes),
		nullFloat(doc.MatchScore),
		string(doc.Status),
		doc.CreatedAt,
		doc.UpdatedAt,
	); err != nil {
		return err
	}

	if len(sections) > 0 {
		const perRow = 12
		values := make([]string, 0, len(sections))
		args := make([]any, 0, len(sections)*perRow)
		for i, s := range sections {
			ph := make([]string, perRow)
			for j := range ph {
				ph[j] = "$" + strconv.Itoa(i*perRow+j+1)
			}
			values = append(values, "("+strings.Join(ph, ", ")+")")
			args = append(args,
				s.ID,
				s.UserID,
				s.DocumentID,
				s.Name,
				s.OriginalText,
				s.SuggestedText,
				nullStringPtr(s.FinalText),
				nullString(s.Rationale),
				string(s.Status),
				s.Ordering,
				s.CreatedAt,
				s.UpdatedAt,
			)
		}
		insertSections := `
INSERT INTO generated_cv_sections (
    id, user_id, generated_cv_id, section_name, original_text, suggested_text,
    final_text, rationale, status, ordering, created_at, updated_at
) VALUES ` + strings.Join(values, ", ")
		if _, err := tx.ExecContext(ctx, insertSections, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns a document owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, id string) (Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM generated_cvs WHERE id = $1 AND user_id = $2`
	return scanDocument(r.DB.QueryRowContext(ctx, query, id, userID))
}

// List lists a user's documents ordered newest-first.
func (r *PGRepo) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM generated_cvs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Sections returns a document's sections by ordering.
func (r *PGRepo) Sections(ctx context.Context, userID, documentID string) ([]Section, error) {
	const query = `
SELECT ` + sectionColumns + `
FROM generated_cv_sections
WHERE generated_cv_id = $1 AND user_id = $2
ORDER BY ordering ASC`
	rows, err := r.DB.QueryContext(ctx, query, documentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Section{}
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Section returns one section owned by userID.
func (r *PGRepo) Section(ctx context.Context, userID, sectionID string) (Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM generated_cv_sections WHERE id = $1 AND user_id = $2`
	return scanSection(r.DB.QueryRowContext(ctx, query, sectionID, userID))
}

// UpdateSection writes the section's review fields.
func (r *PGRepo) UpdateSection(ctx context.Context, section Section) error {
	const query = `
UPDATE generated_cv_sections
SET status = $3, final_text = $4, updated_at = $5
WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		section.ID,
		section.UserID,
		string(section.Status),
		nullStringPtr(section.FinalText),
		section.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets a document's aggregate status.
func (r *PGRepo) UpdateStatus(ctx context.Context, userID, documentID string, status DocumentStatus, at time.Time) error {
	const query = `UPDATE generated_cvs SET status = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, documentID, userID, string(status), at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertExport appends an export log row.
func (r *PGRepo) InsertExport(ctx context.Context, log ExportLog) error {
	const query = `
INSERT INTO cv_exports (id, user_id, generated_cv_id, format, status, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.DocumentID,
		log.Format,
		log.Status,
		nullString(log.Notes),
		log.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc    Document
		score  sql.NullFloat64
		status string
	)
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.CVID,
		&doc.JobID,
		&doc.TailoredText,
		&doc.OptimizationNotes,
		&score,
		&status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.Status = DocumentStatus(status)
	if score.Valid {
		v := score.Float64
		doc.MatchScore = &v
	}
	return doc, nil
}

func scanSection(row rowScanner) (Section, error) {
	var (
		s      Section
		final  sql.NullString
		status string
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.DocumentID,
		&s.Name,
		&s.OriginalText,
		&s.SuggestedText,
		&final,
		&s.Rationale,
		&status,
		&s.Ordering,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Section{}, ErrNotFound
		}
		return Section{}, err
	}
	s.Status = SectionStatus(status)
	if final.Valid {
		v := final.String
		s.FinalText = &v
	}
	return s, nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullStringPtr(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
