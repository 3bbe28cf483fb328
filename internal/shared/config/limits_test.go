package config

import "testing"

func TestParseWindowSeconds(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 60},
		{"   ", 60},
		{"30s", 30},
		{"30", 30},
		{"2m", 120},
		{"5 m", 300},
		{"0m", 60},
		{"0s", 1},
		{"45 S", 45},
		{"abc", 60},
		{"-5s", 60},
	}
	for _, tc := range cases {
		if got := ParseWindowSeconds(tc.raw, 60); got != tc.want {
			t.Fatalf("ParseWindowSeconds(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	if got := ParseLimit("12", 5); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := ParseLimit("twelve", 5); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
	if got := ParseLimit("", 5); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
	if got := ParseLimit("0", 5); got != 0 {
		t.Fatalf("expected explicit 0, got %d", got)
	}
}

func TestLoadResolvesLimitDefaults(t *testing.T) {
	t.Setenv("CV_GENERATION_RATE_LIMIT", "9")
	t.Setenv("CV_GENERATION_RATE_WINDOW", "2m")
	t.Setenv("CV_GENERATION_MONTHLY_LIMIT", "not-a-number")
	t.Setenv("CV_OPTIMIZE_RATE_LIMIT", "")
	t.Setenv("CV_OPTIMIZE_RATE_WINDOW", "15")
	t.Setenv("CV_OPTIMIZE_MONTHLY_LIMIT", "40")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	gen := cfg.Limits.Generation
	if gen.RateLimit != 9 || gen.WindowSeconds != 120 || gen.MonthlyLimit != DefaultGenerationMonthlyLimit {
		t.Fatalf("unexpected generation limits: %+v", gen)
	}
	opt := cfg.Limits.Optimization
	if opt.RateLimit != DefaultOptimizationRateLimit || opt.WindowSeconds != 15 || opt.MonthlyLimit != 40 {
		t.Fatalf("unexpected optimization limits: %+v", opt)
	}
}

func TestLoadNormalizesEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
}
