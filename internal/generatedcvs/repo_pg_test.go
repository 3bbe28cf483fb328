package generatedcvs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateWithSections(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	score := 0.82

	doc := Document{ID: "g1", UserID: "u", CVID: "cv1", JobID: "jd1", TailoredText: "text", MatchScore: &score, Status: StatusInReview, CreatedAt: now, UpdatedAt: now}
	sections := []Section{
		{ID: "s1", UserID: "u", DocumentID: "g1", Name: "Summary", OriginalText: "a", SuggestedText: "b", Status: SectionPending, Ordering: 0, CreatedAt: now, UpdatedAt: now},
		{ID: "s2", UserID: "u", DocumentID: "g1", Name: "Skills", OriginalText: "c", SuggestedText: "d", Rationale: "why", Status: SectionPending, Ordering: 1, CreatedAt: now, UpdatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generated_cvs").
		WithArgs("g1", "u", "cv1", "jd1", "text", nil, 0.82, "in_review", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO generated_cv_sections .* VALUES \(\$1, .*\$12\), \(\$13, .*\$24\)`).
		WithArgs(
			"s1", "u", "g1", "Summary", "a", "b", nil, nil, "pending", 0, now, now,
			"s2", "u", "g1", "Skills", "c", "d", nil, "why", "pending", 1, now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.CreateWithSections(context.Background(), doc, sections); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoCreateRollsBackOnSectionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generated_cvs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO generated_cv_sections").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = repo.CreateWithSections(context.Background(), Document{ID: "g1"}, []Section{{ID: "s1"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSectionScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "user_id", "generated_cv_id", "section_name", "original_text", "suggested_text", "final_text", "rationale", "status", "ordering", "created_at", "updated_at"}
	mock.ExpectQuery("FROM generated_cv_sections").WithArgs("s1", "u").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("s1", "u", "g1", "Summary", "a", "b", "final", "", "approved", 0, now, now))

	s, err := repo.Section(context.Background(), "u", "s1")
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	if s.Status != SectionApproved || s.FinalText == nil || *s.FinalText != "final" {
		t.Fatalf("unexpected section: %+v", s)
	}

	mock.ExpectExec("UPDATE generated_cv_sections").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateSection(context.Background(), Section{ID: "missing", UserID: "u"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
