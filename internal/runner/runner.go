// Package runner schedules test-case executions against the subject with
// bounded parallelism and deterministic result ordering.
package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stellarlinkco/qa-gate/internal/evaluator"
	"github.com/stellarlinkco/qa-gate/internal/prompt"
	"github.com/stellarlinkco/qa-gate/internal/suite"
)

// Runner executes test cases against an Answerer.
type Runner struct {
	answerer Answerer
	cfg      Config
}

// NewRunner creates a Runner with defaults applied.
func NewRunner(answerer Answerer, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Grace <= 0 {
		cfg.Grace = defaultGrace
	}
	return &Runner{answerer: answerer, cfg: cfg}
}

type job struct {
	category string
	tc       *suite.TestCase
	question string // Question template after suite-level fallback
	context  string // Context template after suite-level fallback
}

// RunSuite executes every case in the suite and returns results in the
// suite's declared order, independent of completion order. Each result slot
// is written by exactly one task; a single case's failure never aborts the
// run. Cancelling ctx stops dispatch promptly, gives in-flight calls the
// configured grace window, then marks outstanding cases errored.
func (r *Runner) RunSuite(ctx context.Context, s *suite.Suite) ([]CaseResult, error) {
	if r == nil || r.answerer == nil {
		return nil, errors.New("runner: nil answerer")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if s == nil {
		return nil, errors.New("runner: nil suite")
	}

	jobs := flatten(s)
	results := make([]CaseResult, len(jobs))

	// In-flight calls survive run cancellation for the grace window.
	flightCtx, flightCancel := context.WithCancel(context.Background())
	defer flightCancel()
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			t := time.NewTimer(r.cfg.Grace)
			defer t.Stop()
			select {
			case <-t.C:
				flightCancel()
			case <-done:
			}
		case <-done:
		}
	}()

	indexCh := make(chan int)
	go func() {
		defer close(indexCh)
		for i := range jobs {
			select {
			case indexCh <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := r.cfg.Concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				results[idx] = r.runCase(ctx, flightCtx, jobs[idx])
			}
		}()
	}
	wg.Wait()
	close(done)

	// Cases never dispatched are marked errored with the cancellation
	// reason so the report stays complete.
	if ctx.Err() != nil {
		for i := range results {
			if results[i].CaseID == "" {
				results[i] = CaseResult{
					Category: jobs[i].category,
					CaseID:   jobs[i].tc.ID,
					Verdict:  evaluator.VerdictErrored,
					Err:      "run cancelled: " + ctx.Err().Error(),
				}
			}
		}
	}
	return results, nil
}

func (r *Runner) runCase(runCtx, flightCtx context.Context, j job) CaseResult {
	out := CaseResult{Category: j.category, CaseID: j.tc.ID}

	question, err := prompt.Render(j.question, j.tc.Vars)
	if err != nil {
		out.Verdict = evaluator.VerdictErrored
		out.Err = err.Error()
		return out
	}
	contextText, err := prompt.Render(j.context, j.tc.Vars)
	if err != nil {
		out.Verdict = evaluator.VerdictErrored
		out.Err = err.Error()
		return out
	}
	out.Question = question

	response, err := r.answerer.Answer(flightCtx, question, contextText)
	if err != nil {
		out.Verdict = evaluator.VerdictErrored
		if runCtx.Err() != nil || flightCtx.Err() != nil {
			out.Err = "run cancelled: " + err.Error()
		} else {
			out.Err = err.Error()
		}
		return out
	}
	out.Response = response

	v := evaluator.Evaluate(response, j.tc.Assert)
	out.Verdict = v.Verdict
	out.Outcomes = v.Outcomes
	out.FailureReason = v.FailureReason()
	return out
}

// flatten walks categories in declared order and resolves per-case
// templates against the suite-level defaults.
func flatten(s *suite.Suite) []job {
	var jobs []job
	for i := range s.Categories {
		c := &s.Categories[i]
		for k := range c.Cases {
			tc := &c.Cases[k]
			question := tc.Question
			if strings.TrimSpace(question) == "" {
				question = s.Question
			}
			contextText := tc.Context
			if tc.Context == "" {
				contextText = s.Context
			}
			jobs = append(jobs, job{
				category: c.Name,
				tc:       tc,
				question: question,
				context:  contextText,
			})
		}
	}
	return jobs
}
