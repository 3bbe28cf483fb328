package cvs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/llm"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/usage"
)

type stubGate struct {
	admission usage.Admission
	calls     int
}

func (g *stubGate) Admit(ctx context.Context, userID string, runType runs.Type, pending int) usage.Admission {
	g.calls++
	return g.admission
}

type fakeLLM struct {
	result llm.OptimizeResult
	err    error
	input  llm.OptimizeInput
}

func (f *fakeLLM) OptimizeCV(ctx context.Context, input llm.OptimizeInput) (llm.OptimizeResult, llm.Usage, error) {
	f.input = input
	return f.result, llm.Usage{PromptTokens: runs.IntPtr(100), CompletionTokens: runs.IntPtr(50), PromptHash: "abc"}, f.err
}

func (f *fakeLLM) TailorCV(ctx context.Context, input llm.TailorInput) (llm.TailorResult, llm.Usage, error) {
	return llm.TailorResult{}, llm.Usage{}, llm.ErrNotImplemented
}

type fixture struct {
	svc    *Service
	repo   *MemoryRepo
	ledger *runs.MemoryRepo
	gate   *stubGate
	llm    *fakeLLM
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	seq := 0
	f := &fixture{
		repo:   NewMemoryRepo(),
		ledger: runs.NewMemoryRepo(),
		gate:   &stubGate{admission: usage.Admission{Allowed: true}},
		llm:    &fakeLLM{result: llm.OptimizeResult{OptimizedCV: "better cv"}},
	}
	f.svc = &Service{
		Repo: f.repo,
		Gate: f.gate,
		LLM:  f.llm,
		Runs: &runs.Writer{Repo: f.ledger, Model: "gpt-4o-mini", Now: func() time.Time { return now }},
		Now: func() time.Time {
			seq++
			return now.Add(time.Duration(seq) * time.Second)
		},
	}
	return f
}

func TestCreateFirstCVBecomesReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, "u", "", "  my cv  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !first.IsReference || first.Title != "Pasted CV" || first.TextContent != "my cv" {
		t.Fatalf("unexpected first cv: %+v", first)
	}
	second, err := f.svc.Create(ctx, "u", "Other", "other cv")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.IsReference {
		t.Fatalf("second cv should not be the reference")
	}

	if err := f.svc.SetReference(ctx, "u", second.ID); err != nil {
		t.Fatalf("set reference: %v", err)
	}
	ref, err := f.repo.Reference(ctx, "u")
	if err != nil || ref.ID != second.ID {
		t.Fatalf("expected %s as reference, got %+v err=%v", second.ID, ref, err)
	}
	items, _ := f.svc.List(ctx, "u")
	refs := 0
	for _, cv := range items {
		if cv.IsReference {
			refs++
		}
	}
	if refs != 1 {
		t.Fatalf("expected exactly one reference, got %d", refs)
	}

	if err := f.svc.SetReference(ctx, "other", second.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(t)
	cases := []struct{ title, text string }{
		{"", "   "},
		{strings.Repeat("t", 121), "text"},
		{"", strings.Repeat("x", 50001)},
	}
	for _, tc := range cases {
		if _, err := f.svc.Create(context.Background(), "u", tc.title, tc.text); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for title=%d text=%d, got %v", len(tc.title), len(tc.text), err)
		}
	}
}

func TestOptimizeRequiresReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.svc.Create(ctx, "u", "Ref", "ref cv")
	other, _ := f.svc.Create(ctx, "u", "Other", "other cv")

	_, err := f.svc.Optimize(ctx, "u", other.ID, 0)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != "Only the reference CV can be optimised." {
		t.Fatalf("expected reference validation, got %v", err)
	}
	if _, err := f.svc.Optimize(ctx, "u", "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.gate.calls != 0 {
		t.Fatalf("gate should not run for invalid CVs")
	}
	if got := len(f.ledger.All("u")); got != 0 {
		t.Fatalf("expected no ledger rows, got %d", got)
	}
}

func TestOptimizeSuccessRecordsRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, _ := f.svc.Create(ctx, "u", "Ref", "ref cv")

	opt, err := f.svc.Optimize(ctx, "u", ref.ID, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if opt.OptimizedText != "better cv" || opt.EmbellishmentLevel != 3 {
		t.Fatalf("unexpected optimized cv: %+v", opt)
	}
	if f.llm.input.CVText != "ref cv" || f.llm.input.EmbellishmentLevel != 3 {
		t.Fatalf("unexpected llm input: %+v", f.llm.input)
	}
	rows := f.ledger.All("u")
	if len(rows) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(rows))
	}
	row := rows[0]
	if row.Type != runs.TypeOptimization || row.Status != runs.StatusSuccess || row.Metadata["cv_id"] != ref.ID {
		t.Fatalf("unexpected ledger row: %+v", row)
	}
	if row.TokensInput == nil || *row.TokensInput != 100 {
		t.Fatalf("expected token counts on ledger row: %+v", row)
	}

	base, err := f.svc.TailoringBase(ctx, "u")
	if err != nil {
		t.Fatalf("tailoring base: %v", err)
	}
	if base.Text != "better cv" || base.CV.ID != ref.ID {
		t.Fatalf("expected optimized text as base, got %+v", base)
	}
}

func TestOptimizeFailureRecordsFailedRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, _ := f.svc.Create(ctx, "u", "Ref", "ref cv")
	f.llm.err = errors.New("upstream timeout")

	_, err := f.svc.Optimize(ctx, "u", ref.ID, 4)
	if !errors.Is(err, ErrOptimizationFailed) {
		t.Fatalf("expected optimization failure, got %v", err)
	}
	rows := f.ledger.All("u")
	if len(rows) != 1 || rows[0].Status != runs.StatusFailed {
		t.Fatalf("expected one failed row, got %+v", rows)
	}
	if rows[0].Metadata["error"] != "upstream timeout" {
		t.Fatalf("unexpected failure metadata: %+v", rows[0].Metadata)
	}

	base, err := f.svc.TailoringBase(ctx, "u")
	if err != nil || base.Text != "ref cv" {
		t.Fatalf("expected reference text as base, got %+v err=%v", base, err)
	}
}

func TestOptimizeDeniedWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, _ := f.svc.Create(ctx, "u", "Ref", "ref cv")
	f.gate.admission = usage.Admission{Reason: usage.ReasonRateLimited, Message: "Please wait 5 seconds before trying again.", RetryAfter: 5 * time.Second}

	_, err := f.svc.Optimize(ctx, "u", ref.ID, 0)
	var denied *usage.DeniedError
	if !errors.As(err, &denied) || denied.Admission.Reason != usage.ReasonRateLimited {
		t.Fatalf("expected denial, got %v", err)
	}
	if got := len(f.ledger.All("u")); got != 0 {
		t.Fatalf("denied requests must not write ledger rows, got %d", got)
	}
}

func TestTailoringBaseWithoutReference(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.TailoringBase(context.Background(), "u"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHandlerOptimizeDenied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	ref, _ := f.svc.Create(context.Background(), "u", "Ref", "ref cv")
	f.gate.admission = usage.Admission{Reason: usage.ReasonRateLimited, Message: "Please wait 5 seconds before trying again.", RetryAfter: 5 * time.Second}

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "u") })
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cvs/"+ref.ID+"/optimize", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Retry-After") != "5" {
		t.Fatalf("expected Retry-After 5, got %q", w.Header().Get("Retry-After"))
	}
	if !strings.Contains(w.Body.String(), `"code":"rate_limited"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestHandlerCreateAndOptimize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "u") })
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cvs", strings.NewReader(`{"text":"my cv"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), "CV uploaded successfully.") {
		t.Fatalf("unexpected create response %d: %s", w.Code, w.Body.String())
	}

	ref, _ := f.repo.Reference(context.Background(), "u")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cvs/"+ref.ID+"/optimize", strings.NewReader(`{"embellishment_level":2}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Reference CV optimised.") {
		t.Fatalf("unexpected optimize response %d: %s", w.Code, w.Body.String())
	}
	if f.llm.input.EmbellishmentLevel != 2 {
		t.Fatalf("expected level 2, got %d", f.llm.input.EmbellishmentLevel)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cvs", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"text":"required"`) {
		t.Fatalf("expected field error, got %d: %s", w.Code, w.Body.String())
	}
}
