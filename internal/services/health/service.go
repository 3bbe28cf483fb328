package health

import (
	"context"
	"sort"
	"time"
)

// Checker pings one backing dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping implements Checker.
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Checker
	Timeout time.Duration
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Checker{}, Timeout: 2 * time.Second}
}

// Register adds a named dependency check. Nil checkers are ignored.
func (s *Service) Register(name string, c Checker) {
	if c == nil {
		return
	}
	s.checks[name] = c
}

// Names lists the registered checks in sorted order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status runs every check and reports ok only when all pass.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.checks) == 0 {
		return report
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	report.Checks = make(map[string]string, len(s.checks))
	for _, name := range s.Names() {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.checks[name].Ping(checkCtx)
		cancel()
		if err != nil {
			report.OK = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
