// Package check defines the envelope every repository check reports in and
// a registry to run checks by name.
package check

import (
	"context"
	"fmt"
)

// Status of a finished check.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Repository identifies the repository a check runs against.
type Repository struct {
	Name           string `json:"name,omitempty"`
	LocalPath      string `json:"local_path"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"` // Per-file read budget; 0 = check default
}

// Envelope wraps a check result. Errors is null unless Status is failed.
type Envelope struct {
	Status Status  `json:"status"`
	Score  int     `json:"score"`
	Result any     `json:"result"`
	Errors *string `json:"errors"`
}

// Completed builds a successful envelope.
func Completed(score int, result any) Envelope {
	return Envelope{Status: StatusCompleted, Score: score, Result: result}
}

// Failed builds a failed envelope: score 0, empty result, the error message surfaced.
func Failed(err error) Envelope {
	msg := err.Error()
	return Envelope{Status: StatusFailed, Score: 0, Result: map[string]any{}, Errors: &msg}
}

// Check is one analysis run against a repository.
// Run never returns an error: run-level failures are reported as a failed Envelope.
type Check interface {
	Name() string
	Category() string
	Run(ctx context.Context, repo Repository) Envelope
}

// runGuarded calls fn, converting a panic into a failed envelope.
func runGuarded(name string, fn func() Envelope) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = Failed(fmt.Errorf("%s: panic: %v", name, r))
		}
	}()
	return fn()
}
