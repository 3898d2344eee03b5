package gate

import (
	"fmt"
	"math"
	"testing"

	"github.com/stellarlinkco/qa-gate/internal/evaluator"
	"github.com/stellarlinkco/qa-gate/internal/runner"
	"github.com/stellarlinkco/qa-gate/internal/suite"
)

func floatPtr(f float64) *float64 { return &f }

func caseResults(category string, passed, failed, errored int) []runner.CaseResult {
	var out []runner.CaseResult
	add := func(v evaluator.Verdict, n int) {
		for i := 0; i < n; i++ {
			out = append(out, runner.CaseResult{
				Category: category,
				CaseID:   fmt.Sprintf("%s-%s-%d", category, v, i),
				Verdict:  v,
			})
		}
	}
	add(evaluator.VerdictPassed, passed)
	add(evaluator.VerdictFailed, failed)
	add(evaluator.VerdictErrored, errored)
	return out
}

func TestDecide_StrictCategoryFailsGate(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name: "release-check",
		Categories: []suite.Category{
			{Name: "bias", Strict: true},
			{Name: "grounding", Threshold: floatPtr(0.8)},
		},
	}
	results := append(
		caseResults("bias", 1, 1, 0),
		caseResults("grounding", 4, 1, 0)...,
	)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if report.Passed() {
		t.Fatal("gate passed with a strict category at 0.5")
	}

	bias := report.Categories[0]
	if bias.Threshold != 1.0 {
		t.Fatalf("bias threshold: got %v want 1.0", bias.Threshold)
	}
	if bias.PassRate != 0.5 || bias.MeetsThreshold {
		t.Fatalf("bias: pass rate %v meets=%v", bias.PassRate, bias.MeetsThreshold)
	}

	grounding := report.Categories[1]
	if !grounding.MeetsThreshold {
		t.Fatalf("grounding: pass rate %v should meet 0.8", grounding.PassRate)
	}

	// 5 of 7 overall clears the global minimum; the strict category alone
	// fails the gate.
	if got, want := report.OverallPassRate, 5.0/7.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("overall pass rate: got %v want %v", got, want)
	}
	if report.OverallPassRate < report.GlobalThreshold {
		t.Fatal("overall pass rate unexpectedly below global threshold")
	}
}

func TestDecide_AllCategoriesMeet(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name: "release-check",
		Categories: []suite.Category{
			{Name: "bias", Strict: true},
			{Name: "hallucination", Threshold: floatPtr(0.9)},
		},
	}
	results := append(
		caseResults("bias", 3, 0, 0),
		caseResults("hallucination", 9, 1, 0)...,
	)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !report.Passed() {
		t.Fatalf("gate failed: %+v", report.Categories)
	}
	if report.Decision != DecisionPass {
		t.Fatalf("decision: got %q", report.Decision)
	}
}

func TestDecide_GlobalMinimumFailsGate(t *testing.T) {
	t.Parallel()

	// Each category clears its own low threshold but the overall rate
	// lands under the global minimum.
	s := &suite.Suite{
		Name: "release-check",
		Categories: []suite.Category{
			{Name: "a", Threshold: floatPtr(0.5)},
			{Name: "b", Threshold: floatPtr(0.5)},
		},
	}
	results := append(
		caseResults("a", 1, 1, 0),
		caseResults("b", 1, 1, 0)...,
	)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	for _, c := range report.Categories {
		if !c.MeetsThreshold {
			t.Fatalf("category %q below its own threshold", c.Name)
		}
	}
	if report.Passed() {
		t.Fatalf("gate passed with overall rate %v under %v", report.OverallPassRate, report.GlobalThreshold)
	}
}

func TestDecide_ErroredCountsAgainstRate(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name:       "release-check",
		Categories: []suite.Category{{Name: "grounding", Threshold: floatPtr(0.8)}},
	}
	results := caseResults("grounding", 4, 0, 1)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	c := report.Categories[0]
	if c.Errored != 1 || c.Failed != 0 {
		t.Fatalf("tally: errored=%d failed=%d", c.Errored, c.Failed)
	}
	if c.PassRate != 0.8 {
		t.Fatalf("pass rate: got %v want 0.8", c.PassRate)
	}
	if !c.MeetsThreshold {
		t.Fatal("0.8 should meet a 0.8 threshold")
	}
}

func TestDecide_EmptyCategoryVacuous(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name: "release-check",
		Categories: []suite.Category{
			{Name: "bias", Strict: true},
			{Name: "grounding", Threshold: floatPtr(0.8)},
		},
	}
	results := caseResults("grounding", 5, 0, 0)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	bias := report.Categories[0]
	if !bias.Empty {
		t.Fatal("empty category not flagged")
	}
	if !bias.MeetsThreshold {
		t.Fatal("empty category should vacuously meet its threshold")
	}
	if !report.Passed() {
		t.Fatal("gate failed on an empty category")
	}
}

func TestDecide_DefaultCategoryThreshold(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name:       "release-check",
		Categories: []suite.Category{{Name: "general"}},
	}
	results := caseResults("general", 9, 1, 0)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	c := report.Categories[0]
	if c.Threshold != 0.9 {
		t.Fatalf("threshold: got %v want default 0.9", c.Threshold)
	}
	if !c.MeetsThreshold || !report.Passed() {
		t.Fatalf("9/10 should meet the default threshold: %+v", c)
	}
}

func TestDecide_ZeroGlobalThresholdHonored(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name:       "release-check",
		Categories: []suite.Category{{Name: "a", Threshold: floatPtr(0.4)}},
	}
	results := caseResults("a", 1, 1, 0)

	report, err := Decide(s, results, 0.9, 0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if report.GlobalThreshold != 0 {
		t.Fatalf("global threshold: got %v, want explicit 0", report.GlobalThreshold)
	}
	if !report.Passed() {
		t.Fatal("gate failed despite a zero global minimum")
	}

	defaulted, err := Decide(s, results, 0.9, -1)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if defaulted.GlobalThreshold != DefaultGlobalThreshold {
		t.Fatalf("global threshold: got %v, want default", defaulted.GlobalThreshold)
	}
	if defaulted.Passed() {
		t.Fatal("gate passed with 0.5 overall under the default minimum")
	}
}

func TestDecide_NilSuite(t *testing.T) {
	t.Parallel()

	if _, err := Decide(nil, nil, 0.9, 0.70); err == nil {
		t.Fatal("Decide: want error for nil suite")
	}
}

func TestDecide_CategoryOrderFollowsSuite(t *testing.T) {
	t.Parallel()

	s := &suite.Suite{
		Name: "release-check",
		Categories: []suite.Category{
			{Name: "z-last", Threshold: floatPtr(0.5)},
			{Name: "a-first", Threshold: floatPtr(0.5)},
		},
	}
	results := append(
		caseResults("a-first", 1, 0, 0),
		caseResults("z-last", 1, 0, 0)...,
	)

	report, err := Decide(s, results, 0.9, 0.70)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if report.Categories[0].Name != "z-last" || report.Categories[1].Name != "a-first" {
		t.Fatalf("category order: got %q, %q", report.Categories[0].Name, report.Categories[1].Name)
	}
}
