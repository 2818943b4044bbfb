package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each individual check
const DefaultTimeout = 5 * time.Second

// Manager runs the registered checkers concurrently, each under its own
// timeout.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

func NewManager() *Manager {
	return &Manager{timeout: DefaultTimeout}
}

// WithTimeout replaces the per-check timeout
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	m.timeout = timeout
	m.mu.Unlock()
	return m
}

func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	m.checkers = append(m.checkers, checker)
	m.mu.Unlock()
}

// CheckNames lists checker names in registration order
func (m *Manager) CheckNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.checkers))
	for _, c := range m.checkers {
		names = append(names, c.Name())
	}
	return names
}

// Check runs every checker and returns results keyed by checker name.
// A checker that returns nil or panics is reported unhealthy.
func (m *Manager) Check(ctx context.Context) map[string]*Result {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	timeout := m.timeout
	m.mu.RUnlock()

	out := make([]*Result, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			out[i] = runOne(ctx, c, timeout)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]*Result, len(checkers))
	for i, c := range checkers {
		results[c.Name()] = out[i]
	}
	return results
}

func runOne(ctx context.Context, c Checker, timeout time.Duration) (result *Result) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Unhealthy("check panicked").WithError(fmt.Errorf("%v", r))
		}
		if result == nil {
			result = Unhealthy("check returned no result")
		}
		if result.Latency == 0 {
			result.Latency = time.Since(start)
		}
	}()
	return c.Check(ctx)
}

// NamedResult is a Result labelled with its checker name
type NamedResult struct {
	Name    string                 `json:"name" yaml:"name"`
	Status  Status                 `json:"status" yaml:"status"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration          `json:"latency" yaml:"latency"`
}

// Report is what the doctor command prints
type Report struct {
	Status Status        `json:"status" yaml:"status"`
	Checks []NamedResult `json:"checks" yaml:"checks"`
}

// Report runs every checker; checks are sorted by name.
func (m *Manager) Report(ctx context.Context) Report {
	results := m.Check(ctx)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{Status: OverallStatus(results), Checks: make([]NamedResult, 0, len(names))}
	for _, name := range names {
		r := results[name]
		report.Checks = append(report.Checks, NamedResult{
			Name:    name,
			Status:  r.Status,
			Message: r.Message,
			Details: r.Details,
			Latency: r.Latency,
		})
	}
	return report
}

// OverallStatus is the worst status among results; no results is healthy.
func OverallStatus(results map[string]*Result) Status {
	status := StatusHealthy
	for _, r := range results {
		status = status.Worse(r.Status)
	}
	return status
}
