// Package gate rolls per-case verdicts into category scores and the binary
// decision the deployment pipeline consumes.
package gate

import (
	"errors"
	"time"

	"github.com/stellarlinkco/qa-gate/internal/evaluator"
	"github.com/stellarlinkco/qa-gate/internal/runner"
	"github.com/stellarlinkco/qa-gate/internal/suite"
)

// Decision is the binary gate outcome.
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionFail Decision = "fail"
)

// DefaultGlobalThreshold is the minimum overall pass rate when none is
// configured.
const DefaultGlobalThreshold = 0.70

// CategoryScore aggregates case verdicts for one category. Errored cases
// count against the pass rate but are tallied separately.
type CategoryScore struct {
	Name           string              `json:"name"`
	Threshold      float64             `json:"threshold"`
	Passed         int                 `json:"passed"`
	Failed         int                 `json:"failed"`
	Errored        int                 `json:"errored"`
	Total          int                 `json:"total"`
	PassRate       float64             `json:"pass_rate"`
	MeetsThreshold bool                `json:"meets_threshold"`
	Empty          bool                `json:"empty,omitempty"`
	Cases          []runner.CaseResult `json:"-"`
}

// Report is the full gate artifact for one run.
type Report struct {
	Suite           string          `json:"suite"`
	Timestamp       time.Time       `json:"timestamp"`
	Categories      []CategoryScore `json:"categories"`
	OverallPassRate float64         `json:"overall_pass_rate"`
	GlobalThreshold float64         `json:"global_threshold"`
	Decision        Decision        `json:"gate"`
}

// Passed reports whether the gate allows promotion.
func (r *Report) Passed() bool {
	return r != nil && r.Decision == DecisionPass
}

// Decide groups results by category, computes scores, and takes the gate
// decision: pass only if every category meets its threshold and the overall
// pass rate meets the global minimum. It consumes CaseResults only; the
// subject is never re-queried.
func Decide(s *suite.Suite, results []runner.CaseResult, defaultThreshold, globalThreshold float64) (*Report, error) {
	if s == nil {
		return nil, errors.New("gate: nil suite")
	}
	// Zero is a valid, intentional minimum; only a negative value means
	// "use the default".
	if globalThreshold < 0 {
		globalThreshold = DefaultGlobalThreshold
	}

	byCategory := make(map[string][]runner.CaseResult, len(s.Categories))
	for _, res := range results {
		byCategory[res.Category] = append(byCategory[res.Category], res)
	}

	report := &Report{
		Suite:           s.Name,
		Timestamp:       time.Now().UTC(),
		Categories:      make([]CategoryScore, 0, len(s.Categories)),
		GlobalThreshold: globalThreshold,
	}

	allMeet := true
	totalCases, totalPassed := 0, 0
	for i := range s.Categories {
		c := &s.Categories[i]
		score := scoreCategory(c, byCategory[c.Name], defaultThreshold)
		report.Categories = append(report.Categories, score)

		totalCases += score.Total
		totalPassed += score.Passed
		if !score.MeetsThreshold {
			allMeet = false
		}
	}

	if totalCases > 0 {
		report.OverallPassRate = float64(totalPassed) / float64(totalCases)
	}

	report.Decision = DecisionFail
	if allMeet && report.OverallPassRate >= globalThreshold {
		report.Decision = DecisionPass
	}
	// A run with nothing to gate on never reaches here; an all-empty suite
	// is vacuously passing only if every category is.
	if totalCases == 0 && allMeet {
		report.Decision = DecisionPass
	}
	return report, nil
}

func scoreCategory(c *suite.Category, results []runner.CaseResult, defaultThreshold float64) CategoryScore {
	score := CategoryScore{
		Name:      c.Name,
		Threshold: c.ResolveThreshold(defaultThreshold),
		Total:     len(results),
		Cases:     results,
	}

	for _, res := range results {
		switch res.Verdict {
		case evaluator.VerdictPassed:
			score.Passed++
		case evaluator.VerdictErrored:
			score.Errored++
		default:
			score.Failed++
		}
	}

	if score.Total == 0 {
		// Vacuously meets its threshold, but flagged so reviewers notice.
		score.Empty = true
		score.MeetsThreshold = true
		return score
	}

	score.PassRate = float64(score.Passed) / float64(score.Total)
	score.MeetsThreshold = score.PassRate >= score.Threshold
	return score
}
