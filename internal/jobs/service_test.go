package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var sampleText = strings.Repeat("Build resilient Go services. ", 4)

func newService() *Service {
	seq := 0
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &Service{
		Repo: NewMemoryRepo(),
		Now: func() time.Time {
			seq++
			return base.Add(time.Duration(seq) * time.Minute)
		},
		NewID: func() string { return fmt.Sprintf("jd-%d", seq) },
	}
}

func TestCreateValidatesText(t *testing.T) {
	svc := newService()
	_, err := svc.Create(context.Background(), "u", Input{Text: "too short"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != "Job description must be at least 80 characters." {
		t.Fatalf("expected min length error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "u", Input{Title: strings.Repeat("t", 151), Text: sampleText}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected title error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "u", Input{Text: strings.Repeat("x", 8001)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected max length error, got %v", err)
	}
}

func TestCreateEnforcesStoredLimit(t *testing.T) {
	svc := newService()
	for i := 0; i < MaxStored; i++ {
		if _, err := svc.Create(context.Background(), "u", Input{Text: sampleText}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := svc.Create(context.Background(), "u", Input{Text: sampleText}); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected limit reached, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "other", Input{Text: sampleText}); err != nil {
		t.Fatalf("other user should not be limited: %v", err)
	}
}

func TestSelectKeepsRequestOrderAndScope(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, "u", Input{Title: "A", Text: sampleText})
	b, _ := svc.Create(ctx, "u", Input{Title: "B", Text: sampleText})
	foreign, _ := svc.Create(ctx, "other", Input{Title: "X", Text: sampleText})

	got, err := svc.Select(ctx, "u", []string{b.ID, "missing", a.ID, b.ID, foreign.ID})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("unexpected selection: %+v", got)
	}

	if _, err := svc.Select(ctx, "u", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty selection, got %v", err)
	}
	if _, err := svc.Select(ctx, "u", []string{"1", "2", "3", "4", "5", "6"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for oversized selection, got %v", err)
	}
	if _, err := svc.Select(ctx, "u", []string{foreign.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign job, got %v", err)
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]JobDescription{
		"Engineer at Acme": {Title: "Engineer", Company: "Acme"},
		"Engineer":         {Title: "Engineer"},
		"Acme":             {Company: "Acme"},
		"Untitled job":     {},
	}
	for want, job := range cases {
		if got := job.Label(); got != want {
			t.Fatalf("Label(%+v) = %q, want %q", job, got, want)
		}
	}
}

func TestJobsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newService()
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "u") })
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	body := fmt.Sprintf(`{"title":"Engineer","company":"Acme","text":%q}`, sampleText)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), "Job description added.") {
		t.Fatalf("unexpected create response %d: %s", w.Code, w.Body.String())
	}

	jobs, _ := svc.List(context.Background(), "u")
	if len(jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobs))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/"+jobs[0].ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/"+jobs[0].ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
