package entitlements

import "time"

// Preset is the canonical configuration of a plan.
type Preset struct {
	Generation   Limits
	Optimization Limits
	AllowExport  bool
}

// Presets maps settable plans to their canonical values. Custom plans have no preset.
var Presets = map[Plan]Preset{
	PlanFree: {
		Generation:   Limits{RateLimit: 3, WindowSeconds: 60, MonthlyLimit: 3},
		Optimization: Limits{RateLimit: 3, WindowSeconds: 60, MonthlyLimit: 3},
		AllowExport:  true,
	},
	PlanPro: {
		Generation:   Limits{RateLimit: 15, WindowSeconds: 60, MonthlyLimit: 300},
		Optimization: Limits{RateLimit: 20, WindowSeconds: 60, MonthlyLimit: 120},
		AllowExport:  true,
	},
}

// Record converts the preset into a persisted row for userID with no expiry.
func (p Preset) Record(userID string, plan Plan, now time.Time) Record {
	allow := p.AllowExport
	return Record{
		UserID:           userID,
		Plan:             string(plan),
		GenRateLimit:     intPtr(p.Generation.RateLimit),
		GenWindowSeconds: intPtr(p.Generation.WindowSeconds),
		GenMonthlyLimit:  intPtr(p.Generation.MonthlyLimit),
		OptRateLimit:     intPtr(p.Optimization.RateLimit),
		OptWindowSeconds: intPtr(p.Optimization.WindowSeconds),
		OptMonthlyLimit:  intPtr(p.Optimization.MonthlyLimit),
		AllowExport:      &allow,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// matches reports whether a persisted row already carries the preset values.
// A null allow_export counts as the preset value.
func (p Preset) matches(rec Record) bool {
	if !intEq(rec.GenRateLimit, p.Generation.RateLimit) ||
		!intEq(rec.GenWindowSeconds, p.Generation.WindowSeconds) ||
		!intEq(rec.GenMonthlyLimit, p.Generation.MonthlyLimit) ||
		!intEq(rec.OptRateLimit, p.Optimization.RateLimit) ||
		!intEq(rec.OptWindowSeconds, p.Optimization.WindowSeconds) ||
		!intEq(rec.OptMonthlyLimit, p.Optimization.MonthlyLimit) {
		return false
	}
	if rec.AllowExport != nil && *rec.AllowExport != p.AllowExport {
		return false
	}
	return true
}

func intEq(v *int, want int) bool {
	return v != nil && *v == want
}

func intPtr(v int) *int {
	return &v
}
