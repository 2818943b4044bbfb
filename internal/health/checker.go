// Package health runs dependency checks for the doctor command and the
// dev proxy's probe endpoints.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewBackendChecker(cfg.APIURL, nil))
//	manager.AddChecker(health.NewSessionChecker(cfg.SessionFile))
//	report := manager.Report(ctx)
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency. Names are lowercase with hyphens,
// e.g. "backend-api". Check must return before ctx expires.
type Checker interface {
	Name() string
	Check(ctx context.Context) *Result
}

// Status is the outcome class of a check
type Status string

const (
	StatusHealthy Status = "healthy"
	// StatusDegraded means the client still works with less function,
	// for example while signed out.
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var severity = map[Status]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

func (s Status) String() string {
	return string(s)
}

// Worse returns whichever of s and other is more severe. Unknown
// statuses count as unhealthy.
func (s Status) Worse(other Status) Status {
	rank := func(st Status) int {
		if r, ok := severity[st]; ok {
			return r
		}
		return severity[StatusUnhealthy]
	}
	if rank(other) > rank(s) {
		return other
	}
	return s
}

// Detail keys read by the doctor command
const (
	DetailError      = "error"
	DetailSuggestion = "suggestion"
)

// Result is the outcome of one check
type Result struct {
	Status  Status                 `json:"status" yaml:"status"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration          `json:"latency" yaml:"latency"`
}

func newResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: map[string]interface{}{}}
}

func Healthy(message string) *Result   { return newResult(StatusHealthy, message) }
func Degraded(message string) *Result  { return newResult(StatusDegraded, message) }
func Unhealthy(message string) *Result { return newResult(StatusUnhealthy, message) }

// WithDetail records key and returns r for chaining
func (r *Result) WithDetail(key string, value interface{}) *Result {
	if r.Details == nil {
		r.Details = map[string]interface{}{}
	}
	r.Details[key] = value
	return r
}

// WithError records err's text; a nil err is ignored
func (r *Result) WithError(err error) *Result {
	if err == nil {
		return r
	}
	return r.WithDetail(DetailError, err.Error())
}

// WithSuggestion records the next step the doctor prints under the check
func (r *Result) WithSuggestion(s string) *Result {
	return r.WithDetail(DetailSuggestion, s)
}

// Suggestion returns the recorded suggestion, if any
func (r *Result) Suggestion() string {
	s, _ := r.Details[DetailSuggestion].(string)
	return s
}
