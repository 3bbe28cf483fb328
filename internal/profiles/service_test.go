package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestGetReturnsDefaultsWhenMissing(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	p, err := svc.Get(context.Background(), "u")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.EmbellishmentLevel != 3 || p.DataRetentionDays != 90 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestSaveValidatesAndStores(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := &Service{Repo: NewMemoryRepo(), Now: func() time.Time { return now }}

	p, err := svc.Save(context.Background(), "u", Update{FullName: "  Jane Doe ", EmbellishmentLevel: 5})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.FullName != "Jane Doe" || p.EmbellishmentLevel != 5 || p.DataRetentionDays != 90 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if got := p.LLM(); got.FullName != "Jane Doe" || got.EmbellishmentLevel != 5 {
		t.Fatalf("unexpected llm profile: %+v", got)
	}

	cases := []Update{
		{EmbellishmentLevel: 6},
		{DataRetentionDays: 3},
		{FullName: strings.Repeat("a", 201)},
		{Industry: strings.Repeat("b", 121)},
	}
	for _, in := range cases {
		if _, err := svc.Save(context.Background(), "u", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", in, err)
		}
	}
}

func TestProfileHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&Service{Repo: NewMemoryRepo()})
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "u") })
	h.RegisterRoutes(r.Group("/api/v1"))

	put := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := put(`{"full_name":"Jane","embellishment_level":9}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	} else if !strings.Contains(rec.Body.String(), `"embellishment_level":"max=5"`) {
		t.Fatalf("expected field error, got %s", rec.Body.String())
	}

	if rec := put(`{"full_name":"Jane","job_title":"Engineer"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"jobTitle":"Engineer"`) {
		t.Fatalf("unexpected get: %d %s", rec.Code, rec.Body.String())
	}
}
