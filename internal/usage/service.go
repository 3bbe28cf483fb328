package usage

import (
	"context"
	"time"

	"github.com/antonpme/CV-Optimizer/internal/entitlements"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/config"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Denial reasons.
const (
	ReasonRateLimited   = "rate_limited"
	ReasonQuotaExceeded = "quota_exceeded"
)

// Quota labels used in user-facing messages.
const (
	LabelGeneration   = "tailored CV generations"
	LabelOptimization = "reference optimizations"
)

// EntitlementResolver resolves a user's effective limits.
type EntitlementResolver interface {
	Resolve(ctx context.Context, userID string) entitlements.Entitlement
}

// Admission is the combined result of the entitlement, window and quota checks.
type Admission struct {
	Allowed     bool
	Reason      string
	Message     string
	RetryAfter  time.Duration
	Remaining   int
	Entitlement entitlements.Entitlement
}

// Service runs the admission sequence for quota-consuming actions.
type Service struct {
	Entitlements EntitlementResolver
	Window       *WindowChecker
	Quota        *QuotaLedger
}

// NewService wires a Service. counter may be nil, in which case every window check
// counts ledger rows.
func NewService(resolver EntitlementResolver, counter Counter, ledger StatsReader, defaults config.LimitDefaults) *Service {
	return &Service{
		Entitlements: resolver,
		Window: &WindowChecker{
			Counter: counter,
			Static:  StaticRules(defaults),
			Runs:    ledger,
		},
		Quota: &QuotaLedger{Runs: ledger},
	}
}

// StaticRules is the rule set a shared counter is provisioned for.
func StaticRules(defaults config.LimitDefaults) map[runs.Type]WindowRule {
	return map[runs.Type]WindowRule{
		runs.TypeGeneration: {
			Limit:         defaults.Generation.RateLimit,
			WindowSeconds: defaults.Generation.WindowSeconds,
		},
		runs.TypeOptimization: {
			Limit:         defaults.Optimization.RateLimit,
			WindowSeconds: defaults.Optimization.WindowSeconds,
		},
	}
}

// Admit checks whether userID may start pending runs of runType.
func (s *Service) Admit(ctx context.Context, userID string, runType runs.Type, pending int) Admission {
	ent := s.Entitlements.Resolve(ctx, userID)
	limits := limitsFor(ent, runType)

	window := s.Window.Check(ctx, userID, runType, WindowRule{
		Limit:         limits.RateLimit,
		WindowSeconds: limits.WindowSeconds,
	})
	if !window.Allowed {
		telemetry.Warn("usage.rate_limited", map[string]any{
			"user_id":        userID,
			"run_type":       string(runType),
			"path":           window.Path,
			"retry_after_ms": window.RetryAfter.Milliseconds(),
		})
		return Admission{
			Allowed:     false,
			Reason:      ReasonRateLimited,
			Message:     window.Message,
			RetryAfter:  window.RetryAfter,
			Entitlement: ent,
		}
	}

	quota := s.Quota.Check(ctx, userID, runType, limits.MonthlyLimit, pending, QuotaLabel(runType))
	if !quota.Allowed {
		telemetry.Warn("usage.quota_denied", map[string]any{
			"user_id":   userID,
			"run_type":  string(runType),
			"used":      quota.Used,
			"pending":   pending,
			"limit":     quota.Limit,
			"remaining": quota.Remaining,
		})
		return Admission{
			Allowed:     false,
			Reason:      ReasonQuotaExceeded,
			Message:     quota.Message,
			Remaining:   quota.Remaining,
			Entitlement: ent,
		}
	}

	return Admission{Allowed: true, Remaining: quota.Remaining, Entitlement: ent}
}

// QuotaLabel returns the monthly quota label for runType.
func QuotaLabel(runType runs.Type) string {
	if runType == runs.TypeOptimization {
		return LabelOptimization
	}
	return LabelGeneration
}

func limitsFor(ent entitlements.Entitlement, runType runs.Type) entitlements.Limits {
	if runType == runs.TypeOptimization {
		return ent.Optimization
	}
	return ent.Generation
}

// DeniedError reports a denied admission to callers that work in errors.
type DeniedError struct {
	Admission Admission
}

func (e *DeniedError) Error() string {
	return e.Admission.Message
}

// Err returns nil for an allowed admission and a *DeniedError otherwise.
func (a Admission) Err() error {
	if a.Allowed {
		return nil
	}
	return &DeniedError{Admission: a}
}
