package main

import (
	"fmt"

	"github.com/stellarlinkco/qa-gate/internal/ci"
	"github.com/stellarlinkco/qa-gate/internal/gate"
	"github.com/stellarlinkco/qa-gate/internal/report"
)

func resolveCIMode(opts *runOptions) bool {
	if opts != nil && opts.ci {
		return true
	}
	return ci.DetectCI()
}

func writeCIArtifacts(rep *gate.Report) {
	if rep == nil {
		return
	}
	if err := ci.SetOutput("gate", string(rep.Decision)); err != nil {
		fmt.Fprintf(stderrWriter, "ci: set output: %v\n", err)
	}
	if err := ci.SetOutput("overall_pass_rate", fmt.Sprintf("%.4f", rep.OverallPassRate)); err != nil {
		fmt.Fprintf(stderrWriter, "ci: set output: %v\n", err)
	}
	if err := ci.SetJobSummary(report.Markdown(rep)); err != nil {
		fmt.Fprintf(stderrWriter, "ci: write job summary: %v\n", err)
	}
	for _, cs := range rep.Categories {
		if cs.MeetsThreshold {
			continue
		}
		ci.Annotate("error", fmt.Sprintf("category %q pass rate %.3f below threshold %.3f",
			cs.Name, cs.PassRate, cs.Threshold))
	}
}
