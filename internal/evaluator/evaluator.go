// Package evaluator applies declarative assertions to a response string.
//
// The rule set is closed: contains, not_contains, contains_any and
// not_contains_any, all matched case-insensitively. Evaluation is pure and
// depends only on the response and the case's assertion list.
package evaluator

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/qa-gate/internal/suite"
)

// Verdict classifies the overall outcome of a test case.
type Verdict string

const (
	VerdictPassed  Verdict = "passed"
	VerdictFailed  Verdict = "failed"
	VerdictErrored Verdict = "errored"
)

// AssertionOutcome records the result of one assertion.
type AssertionOutcome struct {
	Kind    suite.Kind `json:"kind"`
	Values  []string   `json:"values"`
	Passed  bool       `json:"passed"`
	Message string     `json:"message,omitempty"`
}

// CaseVerdict holds all assertion outcomes for one response.
type CaseVerdict struct {
	Verdict  Verdict
	Outcomes []AssertionOutcome
	// PrimaryFailure is the first failing assertion in declared order,
	// or -1 when every assertion passed.
	PrimaryFailure int
}

// FailureReason describes the primary failing assertion, or "" on pass.
func (v CaseVerdict) FailureReason() string {
	if v.PrimaryFailure < 0 || v.PrimaryFailure >= len(v.Outcomes) {
		return ""
	}
	o := v.Outcomes[v.PrimaryFailure]
	return fmt.Sprintf("%s(%s): %s", o.Kind, strings.Join(o.Values, ", "), o.Message)
}

// Evaluate applies every assertion to the response. A case passes only if
// all assertions pass; a case with no assertions passes vacuously. All
// outcomes are retained for diagnostics.
func Evaluate(response string, asserts []suite.Assertion) CaseVerdict {
	v := CaseVerdict{
		Verdict:        VerdictPassed,
		Outcomes:       make([]AssertionOutcome, 0, len(asserts)),
		PrimaryFailure: -1,
	}

	lower := strings.ToLower(response)
	for i, a := range asserts {
		o := evaluateOne(lower, a)
		v.Outcomes = append(v.Outcomes, o)
		if !o.Passed && v.PrimaryFailure < 0 {
			v.PrimaryFailure = i
			v.Verdict = VerdictFailed
		}
	}
	return v
}

func evaluateOne(lowerResponse string, a suite.Assertion) AssertionOutcome {
	terms := a.Terms()
	out := AssertionOutcome{Kind: a.Kind, Values: terms}

	var found []string
	for _, t := range terms {
		if strings.Contains(lowerResponse, strings.ToLower(t)) {
			found = append(found, t)
		}
	}

	switch a.Kind {
	case suite.KindContains:
		out.Passed = len(found) == len(terms)
		if !out.Passed {
			out.Message = fmt.Sprintf("missing %d of %d substrings", len(terms)-len(found), len(terms))
		}
	case suite.KindNotContains:
		out.Passed = len(found) == 0
		if !out.Passed {
			out.Message = fmt.Sprintf("forbidden substring present: %s", strings.Join(found, ", "))
		}
	case suite.KindContainsAny:
		out.Passed = len(found) > 0
		if !out.Passed {
			out.Message = "none of the expected substrings present"
		}
	case suite.KindNotContainsAny:
		out.Passed = len(found) == 0
		if !out.Passed {
			out.Message = fmt.Sprintf("forbidden substring present: %s", strings.Join(found, ", "))
		}
	default:
		out.Message = fmt.Sprintf("unknown assertion kind %q", a.Kind)
	}
	return out
}
