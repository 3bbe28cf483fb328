package runs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	record := Record{
		ID:          "run-1",
		UserID:      "user-1",
		Type:        TypeGeneration,
		Status:      StatusFailed,
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		TokensInput: IntPtr(12),
		Metadata:    map[string]any{"jd_id": "job-1", "error": "boom"},
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO ai_runs").
		WithArgs(
			record.ID,
			record.UserID,
			"generation",
			"openai",
			"gpt-4o-mini",
			12,
			nil, // tokens_output
			nil, // cost_usd
			"failed",
			sqlmock.AnyArg(), // metadata
			record.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), record); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	earliest := since.Add(2 * time.Hour)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\), MIN\\(created_at\\)").
		WithArgs("user-1", "optimization", "success", since).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min", "sum"}).AddRow(4, earliest, 0.5))

	stats, err := repo.Stats(context.Background(), Filter{
		UserID: "user-1",
		Type:   TypeOptimization,
		Status: StatusSuccess,
		Since:  since,
	})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != 4 || !stats.Earliest.Equal(earliest) || stats.CostUSD != 0.5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoStatsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("FROM ai_runs").
		WillReturnRows(sqlmock.NewRows([]string{"count", "min", "sum"}).AddRow(0, nil, 0))

	stats, err := repo.Stats(context.Background(), Filter{UserID: "user-1", Type: TypeGeneration, Status: StatusSuccess})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != 0 || !stats.Earliest.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
