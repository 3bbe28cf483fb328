package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/metrics"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Unlimited is reported as Remaining when a limit is not enforced.
const Unlimited = -1

// QuotaDecision is the outcome of a monthly quota check.
type QuotaDecision struct {
	Allowed   bool
	Limit     int
	Used      int
	Remaining int
	Message   string
}

// QuotaLedger admits batches against a calendar-month ceiling of successful runs.
// The check is advisory: nothing is reserved between the check and the ledger writes.
type QuotaLedger struct {
	Runs StatsReader
	Now  func() time.Time
}

// Check decides whether pending more runs fit in this month's limit.
func (q *QuotaLedger) Check(ctx context.Context, userID string, runType runs.Type, limit, pending int, label string) QuotaDecision {
	if limit <= 0 {
		metrics.ObserveQuotaCheck(string(runType), true)
		return QuotaDecision{Allowed: true, Limit: limit, Remaining: Unlimited}
	}
	used := q.Used(ctx, userID, runType)
	projected := used + pending
	if projected > limit {
		remaining := max(0, limit-used)
		metrics.ObserveQuotaCheck(string(runType), false)
		return QuotaDecision{
			Allowed:   false,
			Limit:     limit,
			Used:      used,
			Remaining: remaining,
			Message:   quotaMessage(remaining, label),
		}
	}
	metrics.ObserveQuotaCheck(string(runType), true)
	return QuotaDecision{
		Allowed:   true,
		Limit:     limit,
		Used:      used,
		Remaining: limit - projected,
	}
}

// Used counts this month's successful runs. Store errors count as zero.
func (q *QuotaLedger) Used(ctx context.Context, userID string, runType runs.Type) int {
	if q.Runs == nil {
		return 0
	}
	stats, err := q.Runs.Stats(ctx, runs.Filter{
		UserID: userID,
		Type:   runType,
		Status: runs.StatusSuccess,
		Since:  runs.MonthStart(q.now()),
	})
	if err != nil {
		telemetry.Error("usage.quota_count_failed", map[string]any{
			"user_id":  userID,
			"run_type": string(runType),
			"error":    err.Error(),
		})
		return 0
	}
	return stats.Count
}

func (q *QuotaLedger) now() time.Time {
	if q.Now != nil {
		return q.Now().UTC()
	}
	return time.Now().UTC()
}

func quotaMessage(remaining int, label string) string {
	if remaining > 0 {
		return fmt.Sprintf("You have %d %s left this month. Reduce your selection or wait until the next cycle.", remaining, label)
	}
	return fmt.Sprintf("Monthly %s limit reached. Upgrade your plan or wait until the next cycle.", label)
}
