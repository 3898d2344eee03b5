package runner

import (
	"context"
	"time"

	"github.com/stellarlinkco/qa-gate/internal/evaluator"
)

// Answerer is the subject boundary: one call per test case.
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// Config defines runner behavior.
type Config struct {
	Concurrency int           // Max in-flight subject calls
	Grace       time.Duration // How long in-flight calls may run after cancellation
}

const (
	defaultConcurrency = 8
	defaultGrace       = 2 * time.Second
)

// CaseResult is the immutable outcome of one test case. It is created
// exactly once, written by exactly one evaluation task, and never mutated
// afterwards.
type CaseResult struct {
	Category string
	CaseID   string
	Question string // Rendered question, empty when rendering failed
	Response string // Raw subject response, empty when the case errored

	Verdict       evaluator.Verdict
	Outcomes      []evaluator.AssertionOutcome
	FailureReason string // Primary failing assertion, or ""
	Err           string // Transport/render/cancellation detail for errored cases
}
