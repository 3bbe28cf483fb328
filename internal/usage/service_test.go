package usage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/entitlements"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/config"
)

func newTestService(t *testing.T, ledger *runs.MemoryRepo, ents entitlements.Repo, counter Counter, now time.Time) *Service {
	t.Helper()
	defaults := config.BuiltinLimitDefaults()
	clock := func() time.Time { return now }
	resolver := entitlements.NewResolver(ents, defaults)
	resolver.Now = clock
	svc := NewService(resolver, counter, ledger, defaults)
	svc.Window.Now = clock
	svc.Quota.Now = clock
	return svc
}

func TestAdmitRateLimitedBeforeQuota(t *testing.T) {
	ledger := runs.NewMemoryRepo()
	now := time.Date(2025, 6, 10, 12, 0, 30, 0, time.UTC)
	for i := 0; i < 8; i++ {
		seedSuccess(t, ledger, "u", runs.TypeOptimization, now.Add(-time.Duration(i+1)*time.Second))
	}
	svc := newTestService(t, ledger, entitlements.NewMemoryRepo(), nil, now)

	a := svc.Admit(context.Background(), "u", runs.TypeOptimization, 1)
	if a.Allowed || a.Reason != ReasonRateLimited {
		t.Fatalf("expected rate limited, got %+v", a)
	}
	if a.RetryAfter <= 0 || a.RetryAfter >= time.Minute {
		t.Fatalf("expected retry under a minute, got %s", a.RetryAfter)
	}
}

func TestAdmitQuotaExceededForFreePlan(t *testing.T) {
	ledger := runs.NewMemoryRepo()
	ents := entitlements.NewMemoryRepo()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if err := ents.Upsert(context.Background(), entitlements.Presets[entitlements.PlanFree].Record("u", entitlements.PlanFree, now)); err != nil {
		t.Fatalf("seed entitlement: %v", err)
	}
	for i := 0; i < 3; i++ {
		seedSuccess(t, ledger, "u", runs.TypeGeneration, now.Add(-time.Duration(i+1)*time.Hour))
	}
	svc := newTestService(t, ledger, ents, nil, now)

	a := svc.Admit(context.Background(), "u", runs.TypeGeneration, 1)
	if a.Allowed || a.Reason != ReasonQuotaExceeded {
		t.Fatalf("expected quota exceeded, got %+v", a)
	}
	if a.Remaining != 0 || !strings.Contains(a.Message, "limit reached") {
		t.Fatalf("unexpected denial: %+v", a)
	}
	if a.Entitlement.Plan != entitlements.PlanFree {
		t.Fatalf("expected free plan, got %s", a.Entitlement.Plan)
	}
}

func TestAdmitUsesCounterForDefaultRule(t *testing.T) {
	ledger := runs.NewMemoryRepo()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	counter := &recordingCounter{next: NewMemoryCounter()}
	svc := newTestService(t, ledger, entitlements.NewMemoryRepo(), counter, now)

	for i := 0; i < 5; i++ {
		if a := svc.Admit(context.Background(), "u", runs.TypeGeneration, 1); !a.Allowed {
			t.Fatalf("attempt %d: expected allow, got %+v", i+1, a)
		}
	}
	a := svc.Admit(context.Background(), "u", runs.TypeGeneration, 1)
	if a.Allowed || a.Reason != ReasonRateLimited {
		t.Fatalf("expected counter denial, got %+v", a)
	}
	if len(counter.keys) != 6 {
		t.Fatalf("expected 6 counter hits, got %d", len(counter.keys))
	}
}

func TestAdmitAllowedReportsRemaining(t *testing.T) {
	ledger := runs.NewMemoryRepo()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, ledger, nil, nil, now)

	a := svc.Admit(context.Background(), "u", runs.TypeGeneration, 2)
	if !a.Allowed {
		t.Fatalf("expected allow, got %+v", a)
	}
	if a.Remaining != config.DefaultGenerationMonthlyLimit-2 {
		t.Fatalf("unexpected remaining %d", a.Remaining)
	}
}

func TestUsageHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := runs.NewMemoryRepo()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	seedSuccess(t, ledger, "u", runs.TypeOptimization, now.Add(-time.Hour))
	svc := newTestService(t, ledger, entitlements.NewMemoryRepo(), nil, now)
	h := NewHandler(svc, ledger)
	h.Now = func() time.Time { return now }

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "u") })
	h.RegisterRoutes(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"optimization":{"rateLimit":8,"windowSeconds":60,"monthlyLimit":30,"used":1,"remaining":29}`) {
		t.Fatalf("unexpected body: %s", body)
	}
	if !strings.Contains(body, `"periodStart":"2025-06-01T00:00:00Z"`) {
		t.Fatalf("unexpected period start: %s", body)
	}
}

func TestAdmissionErr(t *testing.T) {
	if err := (Admission{Allowed: true}).Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	err := (Admission{Reason: ReasonQuotaExceeded, Message: "Monthly limit reached."}).Err()
	var denied *DeniedError
	if !errors.As(err, &denied) || denied.Admission.Reason != ReasonQuotaExceeded {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if err.Error() != "Monthly limit reached." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestRespondDenied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/generated", nil)

	RespondDenied(c, &DeniedError{Admission: Admission{
		Reason:     ReasonRateLimited,
		Message:    "Please wait 12 seconds before trying again.",
		RetryAfter: 11500 * time.Millisecond,
	}})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "12" {
		t.Fatalf("expected Retry-After 12, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"code":"rate_limited"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
