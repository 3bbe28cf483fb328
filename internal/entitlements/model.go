package entitlements

import (
	"time"

	"github.com/antonpme/CV-Optimizer/internal/shared/config"
)

// Plan identifies a billing plan.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanCustom Plan = "custom"
)

// Limits is the window and monthly ceiling for one action.
type Limits struct {
	RateLimit     int `json:"rateLimit"`
	WindowSeconds int `json:"windowSeconds"`
	MonthlyLimit  int `json:"monthlyLimit"`
}

// Entitlement is the resolved set of limits and permissions for one user.
type Entitlement struct {
	UserID       string     `json:"userId"`
	Plan         Plan       `json:"plan"`
	Generation   Limits     `json:"generation"`
	Optimization Limits     `json:"optimization"`
	AllowExport  bool       `json:"allowExport"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// Record mirrors the persisted row. Nil fields fall back to defaults.
type Record struct {
	UserID           string
	Plan             string
	GenRateLimit     *int
	GenWindowSeconds *int
	GenMonthlyLimit  *int
	OptRateLimit     *int
	OptWindowSeconds *int
	OptMonthlyLimit  *int
	AllowExport      *bool
	ExpiresAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Defaults builds the entitlement used when a user has no row.
func Defaults(userID string, limits config.LimitDefaults) Entitlement {
	return Entitlement{
		UserID: userID,
		Plan:   PlanFree,
		Generation: Limits{
			RateLimit:     limits.Generation.RateLimit,
			WindowSeconds: limits.Generation.WindowSeconds,
			MonthlyLimit:  limits.Generation.MonthlyLimit,
		},
		Optimization: Limits{
			RateLimit:     limits.Optimization.RateLimit,
			WindowSeconds: limits.Optimization.WindowSeconds,
			MonthlyLimit:  limits.Optimization.MonthlyLimit,
		},
		AllowExport: true,
	}
}

// Merge overlays a persisted row on the defaults one field at a time.
func Merge(rec Record, defaults Entitlement) Entitlement {
	out := defaults
	out.UserID = rec.UserID
	if rec.Plan != "" {
		out.Plan = Plan(rec.Plan)
	}
	out.Generation.RateLimit = intOr(rec.GenRateLimit, defaults.Generation.RateLimit)
	out.Generation.WindowSeconds = intOr(rec.GenWindowSeconds, defaults.Generation.WindowSeconds)
	out.Generation.MonthlyLimit = intOr(rec.GenMonthlyLimit, defaults.Generation.MonthlyLimit)
	out.Optimization.RateLimit = intOr(rec.OptRateLimit, defaults.Optimization.RateLimit)
	out.Optimization.WindowSeconds = intOr(rec.OptWindowSeconds, defaults.Optimization.WindowSeconds)
	out.Optimization.MonthlyLimit = intOr(rec.OptMonthlyLimit, defaults.Optimization.MonthlyLimit)
	if rec.AllowExport != nil {
		out.AllowExport = *rec.AllowExport
	}
	out.ExpiresAt = rec.ExpiresAt
	return out
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
