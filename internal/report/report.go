// Package report serializes a gate report to a machine-readable artifact
// and a condensed human summary.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stellarlinkco/qa-gate/internal/evaluator"
	"github.com/stellarlinkco/qa-gate/internal/gate"
)

// Artifact is the JSON document written for the deployment pipeline.
type Artifact struct {
	Suite           string         `json:"suite"`
	Timestamp       string         `json:"timestamp"`
	Gate            gate.Decision  `json:"gate"`
	OverallPassRate float64        `json:"overall_pass_rate"`
	GlobalThreshold float64        `json:"global_threshold"`
	Categories      []CategoryJSON `json:"categories"`
}

// CategoryJSON mirrors gate.CategoryScore with per-case detail attached.
type CategoryJSON struct {
	Name           string     `json:"name"`
	Threshold      float64    `json:"threshold"`
	Passed         int        `json:"passed"`
	Failed         int        `json:"failed"`
	Errored        int        `json:"errored"`
	Total          int        `json:"total"`
	PassRate       float64    `json:"pass_rate"`
	MeetsThreshold bool       `json:"meets_threshold"`
	Empty          bool       `json:"empty,omitempty"`
	Cases          []CaseJSON `json:"cases"`
}

// CaseJSON is the per-case record in the artifact.
type CaseJSON struct {
	CaseID        string                       `json:"case_id"`
	Verdict       evaluator.Verdict            `json:"verdict"`
	FailureReason string                       `json:"failure_reason,omitempty"`
	Response      string                       `json:"response,omitempty"`
	Error         string                       `json:"error,omitempty"`
	Assertions    []evaluator.AssertionOutcome `json:"assertions,omitempty"`
}

// Build converts a gate report into its artifact form.
func Build(r *gate.Report) (*Artifact, error) {
	if r == nil {
		return nil, errors.New("report: nil gate report")
	}

	out := &Artifact{
		Suite:           r.Suite,
		Timestamp:       r.Timestamp.UTC().Format(time.RFC3339),
		Gate:            r.Decision,
		OverallPassRate: r.OverallPassRate,
		GlobalThreshold: r.GlobalThreshold,
		Categories:      make([]CategoryJSON, 0, len(r.Categories)),
	}

	for _, cs := range r.Categories {
		cj := CategoryJSON{
			Name:           cs.Name,
			Threshold:      cs.Threshold,
			Passed:         cs.Passed,
			Failed:         cs.Failed,
			Errored:        cs.Errored,
			Total:          cs.Total,
			PassRate:       cs.PassRate,
			MeetsThreshold: cs.MeetsThreshold,
			Empty:          cs.Empty,
			Cases:          make([]CaseJSON, 0, len(cs.Cases)),
		}
		for _, res := range cs.Cases {
			cj.Cases = append(cj.Cases, CaseJSON{
				CaseID:        res.CaseID,
				Verdict:       res.Verdict,
				FailureReason: res.FailureReason,
				Response:      res.Response,
				Error:         res.Err,
				Assertions:    res.Outcomes,
			})
		}
		out.Categories = append(out.Categories, cj)
	}
	return out, nil
}

// WriteFile writes the artifact as indented JSON. The parent directory is
// created when missing. Writing happens even when the gate failed so
// downstream tooling can inspect failure detail.
func WriteFile(path string, r *gate.Report) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("report: empty artifact path")
	}

	a, err := Build(r)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create dir: %w", err)
		}
	}

	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode artifact: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	return nil
}

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

func status(ok bool, color bool) string {
	switch {
	case ok && color:
		return colorGreen + "PASS" + colorReset
	case ok:
		return "PASS"
	case color:
		return colorRed + "FAIL" + colorReset
	default:
		return "FAIL"
	}
}

// WriteSummary writes the condensed human-readable summary: one line per
// category plus the gate verdict line.
func WriteSummary(w io.Writer, r *gate.Report, color bool) error {
	if w == nil {
		return errors.New("report: nil writer")
	}
	if r == nil {
		return errors.New("report: nil gate report")
	}

	fmt.Fprintf(w, "Suite: %s\n", r.Suite)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPASSED\tFAILED\tERRORED\tPASS RATE\tTHRESHOLD\tRESULT")
	for _, cs := range r.Categories {
		note := ""
		if cs.Empty {
			note = " (empty)"
		}
		fmt.Fprintf(tw, "%s%s\t%d\t%d\t%d\t%.3f\t%.3f\t%s\n",
			cs.Name, note, cs.Passed, cs.Failed, cs.Errored, cs.PassRate, cs.Threshold, status(cs.MeetsThreshold, color))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Overall: %.3f (minimum %.3f)\n", r.OverallPassRate, r.GlobalThreshold)
	fmt.Fprintf(w, "Gate: %s\n", status(r.Passed(), color))
	return nil
}

// Markdown renders the report as a GitHub-flavored table for job summaries.
func Markdown(r *gate.Report) string {
	if r == nil {
		return ""
	}

	var buf strings.Builder
	buf.WriteString("## Safety Gate Results\n\n")
	fmt.Fprintf(&buf, "Suite: `%s` | Overall: %.3f (minimum %.3f) | Gate: **%s**\n\n",
		r.Suite, r.OverallPassRate, r.GlobalThreshold, strings.ToUpper(string(r.Decision)))

	buf.WriteString("| Category | Passed | Failed | Errored | Pass Rate | Threshold | Result |\n")
	buf.WriteString("| --- | ---: | ---: | ---: | ---: | ---: | --- |\n")
	for _, cs := range r.Categories {
		name := cs.Name
		if cs.Empty {
			name += " (empty)"
		}
		fmt.Fprintf(&buf, "| %s | %d | %d | %d | %.3f | %.3f | %s |\n",
			name, cs.Passed, cs.Failed, cs.Errored, cs.PassRate, cs.Threshold, status(cs.MeetsThreshold, false))
	}
	return buf.String()
}
