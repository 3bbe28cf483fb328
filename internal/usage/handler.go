package usage

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/entitlements"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
)

// Handler exposes the usage summary.
type Handler struct {
	Svc  *Service
	Runs runs.StatsReader
	Now  func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, ledger runs.StatsReader) *Handler {
	return &Handler{Svc: svc, Runs: ledger}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.get)
}

type actionUsage struct {
	RateLimit     int `json:"rateLimit"`
	WindowSeconds int `json:"windowSeconds"`
	MonthlyLimit  int `json:"monthlyLimit"`
	Used          int `json:"used"`
	Remaining     int `json:"remaining"`
}

type usageResponse struct {
	Plan         entitlements.Plan `json:"plan"`
	AllowExport  bool              `json:"allowExport"`
	PeriodStart  time.Time         `json:"periodStart"`
	Generation   actionUsage       `json:"generation"`
	Optimization actionUsage       `json:"optimization"`
	Cost         runs.CostSummary  `json:"cost"`
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ctx := c.Request.Context()
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	since := runs.MonthStart(now)

	ent := h.Svc.Entitlements.Resolve(ctx, userID)
	cost, err := runs.SummarizeCost(ctx, h.Runs, userID, since)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load usage", nil)
		return
	}

	respond.OK(c, usageResponse{
		Plan:         ent.Plan,
		AllowExport:  ent.AllowExport,
		PeriodStart:  since,
		Generation:   h.action(c, userID, runs.TypeGeneration, ent.Generation),
		Optimization: h.action(c, userID, runs.TypeOptimization, ent.Optimization),
		Cost:         cost,
	})
}

func (h *Handler) action(c *gin.Context, userID string, runType runs.Type, limits entitlements.Limits) actionUsage {
	used := h.Svc.Quota.Used(c.Request.Context(), userID, runType)
	remaining := Unlimited
	if limits.MonthlyLimit > 0 {
		remaining = max(0, limits.MonthlyLimit-used)
	}
	return actionUsage{
		RateLimit:     limits.RateLimit,
		WindowSeconds: limits.WindowSeconds,
		MonthlyLimit:  limits.MonthlyLimit,
		Used:          used,
		Remaining:     remaining,
	}
}

// RespondDenied writes a 429 for a denied admission, with Retry-After when known.
func RespondDenied(c *gin.Context, denied *DeniedError) {
	a := denied.Admission
	if a.RetryAfter > 0 {
		respond.RetryAfter(c, a.RetryAfter)
	}
	c.Set(middleware.LogKeyDenial, a.Reason)
	details := map[string]any{}
	if a.Reason == ReasonQuotaExceeded {
		details["remaining"] = a.Remaining
	}
	respond.Error(c, http.StatusTooManyRequests, a.Reason, a.Message, details)
}
