package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is down or every source is.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

const dbCheck = "database"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	sources []SourceChecker
	timeout time.Duration
}

// New creates a Service. db can be nil when verification is disabled.
func New(db DBPinger, sources []SourceChecker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Service{db: db, sources: sources, timeout: timeout}
}

// Check runs all component checks concurrently. A failed store or the loss of
// every source is Unhealthy; any other failure is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(s.sources)+1)
	)

	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		res := CheckOK
		if err := fn(cctx); err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	if s.db != nil {
		wg.Add(1)
		go run(dbCheck, s.db.Ping)
	}
	for _, src := range s.sources {
		wg.Add(1)
		go run(src.Name(), src.HealthCheck)
	}
	wg.Wait()

	return Report{Status: s.status(checks), Checks: checks}
}

func (s *Service) status(checks map[string]CheckResult) Status {
	if checks[dbCheck] == CheckError {
		return Unhealthy
	}

	failed := 0
	for _, src := range s.sources {
		if checks[src.Name()] == CheckError {
			failed++
		}
	}
	switch {
	case len(s.sources) > 0 && failed == len(s.sources):
		return Unhealthy
	case failed > 0:
		return Degraded
	default:
		return Healthy
	}
}
