package usage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/metrics"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Window check paths.
const (
	PathUnlimited = "unlimited"
	PathCache     = "cache"
	PathLedger    = "ledger"
)

// WindowRule is a limit per window. Limit <= 0 is unlimited.
type WindowRule struct {
	Limit         int
	WindowSeconds int
}

func (r WindowRule) window() time.Duration {
	secs := r.WindowSeconds
	if secs <= 0 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// WindowDecision is the outcome of a window check. Denial is a value, not an error.
type WindowDecision struct {
	Allowed    bool
	Path       string
	RetryAfter time.Duration
	Message    string
}

// StatsReader is the slice of the run ledger the usage checks need.
type StatsReader interface {
	Stats(ctx context.Context, filter runs.Filter) (runs.Stats, error)
}

// WindowChecker admits actions within a short window.
//
// The shared Counter is used only when it is configured and the caller's rule equals
// the static rule it was provisioned for; every other case counts successful runs in
// the ledger. Counter failures degrade to the ledger path.
type WindowChecker struct {
	Counter Counter
	Static  map[runs.Type]WindowRule
	Runs    StatsReader
	Now     func() time.Time
}

// Check decides whether userID may perform one more runType action under rule.
func (w *WindowChecker) Check(ctx context.Context, userID string, runType runs.Type, rule WindowRule) WindowDecision {
	if rule.Limit <= 0 {
		metrics.ObserveWindowCheck(string(runType), PathUnlimited, true)
		return WindowDecision{Allowed: true, Path: PathUnlimited}
	}
	now := w.now()

	if w.Counter != nil {
		if static, ok := w.Static[runType]; ok && static == rule {
			decision, err := w.checkCounter(ctx, userID, runType, rule, now)
			if err == nil {
				metrics.ObserveWindowCheck(string(runType), PathCache, decision.Allowed)
				return decision
			}
			telemetry.Warn("usage.counter_unavailable", map[string]any{
				"user_id":  userID,
				"run_type": string(runType),
				"error":    err.Error(),
			})
		}
	}

	decision := w.checkLedger(ctx, userID, runType, rule, now)
	metrics.ObserveWindowCheck(string(runType), PathLedger, decision.Allowed)
	return decision
}

func (w *WindowChecker) checkCounter(ctx context.Context, userID string, runType runs.Type, rule WindowRule, now time.Time) (WindowDecision, error) {
	window := rule.window()
	key := fmt.Sprintf("ratelimit:%s:%s:%d", runType, userID, windowBucket(now, window))
	res, err := w.Counter.Increment(ctx, key, rule.Limit, window, now)
	if err != nil {
		return WindowDecision{}, err
	}
	if res.Allowed {
		return WindowDecision{Allowed: true, Path: PathCache}, nil
	}
	retry := retryAfter(res.ResetAt, now)
	return WindowDecision{
		Allowed:    false,
		Path:       PathCache,
		RetryAfter: retry,
		Message:    WaitMessage(res.ResetAt, now),
	}, nil
}

func (w *WindowChecker) checkLedger(ctx context.Context, userID string, runType runs.Type, rule WindowRule, now time.Time) WindowDecision {
	if w.Runs == nil {
		return WindowDecision{Allowed: true, Path: PathLedger}
	}
	window := rule.window()
	stats, err := w.Runs.Stats(ctx, runs.Filter{
		UserID: userID,
		Type:   runType,
		Status: runs.StatusSuccess,
		Since:  now.Add(-window),
	})
	if err != nil {
		telemetry.Error("usage.window_count_failed", map[string]any{
			"user_id":  userID,
			"run_type": string(runType),
			"error":    err.Error(),
		})
		return WindowDecision{Allowed: true, Path: PathLedger}
	}
	if stats.Count < rule.Limit {
		return WindowDecision{Allowed: true, Path: PathLedger}
	}

	// Past the limit the earliest run expiring still leaves the user over it,
	// so no honest wait can be derived from Earliest.
	if stats.Earliest.IsZero() || stats.Count > rule.Limit {
		return WindowDecision{
			Allowed: false,
			Path:    PathLedger,
			Message: fmt.Sprintf("Please wait a bit before more %s.", windowLabel(runType)),
		}
	}
	resetAt := stats.Earliest.Add(window)
	return WindowDecision{
		Allowed:    false,
		Path:       PathLedger,
		RetryAfter: retryAfter(resetAt, now),
		Message:    WaitMessage(resetAt, now),
	}
}

func (w *WindowChecker) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

// WaitMessage renders a human estimate of the time until resetAt.
func WaitMessage(resetAt, now time.Time) string {
	if resetAt.IsZero() {
		return "Too many requests. Please wait a moment before trying again."
	}
	seconds := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	if seconds < 60 {
		return fmt.Sprintf("Please wait %d seconds before trying again.", seconds)
	}
	minutes := int(math.Ceil(float64(seconds) / 60))
	return fmt.Sprintf("Please wait about %d minute(s) before trying again.", minutes)
}

func retryAfter(resetAt, now time.Time) time.Duration {
	if resetAt.IsZero() {
		return 0
	}
	d := resetAt.Sub(now)
	if d < time.Second {
		d = time.Second
	}
	return d
}

func windowLabel(runType runs.Type) string {
	if runType == runs.TypeOptimization {
		return "optimizations"
	}
	return "generations"
}
