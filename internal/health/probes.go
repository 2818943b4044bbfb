package health

import (
	"context"
	"sync/atomic"
	"time"
)

// Probes answers liveness and readiness for a long-running process.
type Probes struct {
	*Manager

	startTime  time.Time
	inShutdown atomic.Bool
	version    string
}

// NewProbes wraps manager with process state.
func NewProbes(manager *Manager, version string) *Probes {
	return &Probes{
		Manager:   manager,
		startTime: time.Now(),
		version:   version,
	}
}

// MarkShutdown makes readiness fail from now on.
func (p *Probes) MarkShutdown() {
	p.inShutdown.Store(true)
}

// IsShuttingDown returns whether MarkShutdown was called.
func (p *Probes) IsShuttingDown() bool {
	return p.inShutdown.Load()
}

// ProbeResult is the JSON body of a probe endpoint.
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Liveness never runs dependency checks. It reports degraded while
// shutting down.
func (p *Probes) Liveness(ctx context.Context) *ProbeResult {
	status := StatusHealthy
	if p.IsShuttingDown() {
		status = StatusDegraded
	}
	return p.result(status, nil)
}

// Readiness runs every registered check. A shutting-down process is
// never ready.
func (p *Probes) Readiness(ctx context.Context) *ProbeResult {
	if p.IsShuttingDown() {
		return p.result(StatusUnhealthy, nil)
	}
	checks := p.Manager.Check(ctx)
	return p.result(OverallStatus(checks), checks)
}

func (p *Probes) result(status Status, checks map[string]*Result) *ProbeResult {
	return &ProbeResult{
		Status:    status,
		Version:   p.version,
		Uptime:    time.Since(p.startTime).Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}
