package config

import (
	"regexp"
	"strconv"
	"strings"
)

// Hardcoded fallbacks used when the matching env value is unset or unparsable.
const (
	DefaultGenerationRateLimit      = 5
	DefaultGenerationMonthlyLimit   = 50
	DefaultOptimizationRateLimit    = 8
	DefaultOptimizationMonthlyLimit = 30
	DefaultWindowSeconds            = 60
)

// ActionLimits is the short-term window and monthly ceiling for one action.
type ActionLimits struct {
	RateLimit     int
	WindowSeconds int
	MonthlyLimit  int
}

// LimitDefaults is resolved once at startup and injected where defaults are needed.
type LimitDefaults struct {
	Generation   ActionLimits
	Optimization ActionLimits
}

// BuiltinLimitDefaults returns the hardcoded defaults without consulting the environment.
func BuiltinLimitDefaults() LimitDefaults {
	return LimitDefaults{
		Generation: ActionLimits{
			RateLimit:     DefaultGenerationRateLimit,
			WindowSeconds: DefaultWindowSeconds,
			MonthlyLimit:  DefaultGenerationMonthlyLimit,
		},
		Optimization: ActionLimits{
			RateLimit:     DefaultOptimizationRateLimit,
			WindowSeconds: DefaultWindowSeconds,
			MonthlyLimit:  DefaultOptimizationMonthlyLimit,
		},
	}
}

var (
	minutesPattern = regexp.MustCompile(`^(\d+)\s*m`)
	secondsPattern = regexp.MustCompile(`^(\d+)\s*s?`)
)

// ParseWindowSeconds parses "<N>m", "<N>s" or a bare "<N>" into seconds.
// N of zero is clamped to one unit. Anything else yields fallback.
func ParseWindowSeconds(raw string, fallback int) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return fallback
	}
	if m := minutesPattern.FindStringSubmatch(value); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return max(1, n) * 60
		}
		return fallback
	}
	if m := secondsPattern.FindStringSubmatch(value); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return max(1, n)
		}
	}
	return fallback
}

// ParseLimit parses a base-10 integer limit, returning fallback when unset or invalid.
func ParseLimit(raw string, fallback int) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
