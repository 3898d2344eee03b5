package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/stellarlinkco/qa-gate/internal/gate"
	"github.com/stellarlinkco/qa-gate/internal/report"
)

type outputFormat string

const (
	formatTable  outputFormat = "table"
	formatJSON   outputFormat = "json"
	formatGitHub outputFormat = "github"
)

func parseFormat(s string) (outputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return formatTable, nil
	case "json":
		return formatJSON, nil
	case "github", "gh":
		return formatGitHub, nil
	default:
		return "", fmt.Errorf("invalid --format %q (expected table|json|github)", s)
	}
}

func printReport(w io.Writer, rep *gate.Report, format outputFormat) error {
	switch format {
	case formatTable:
		return report.WriteSummary(w, rep, true)
	case formatJSON:
		a, err := report.Build(rep)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case formatGitHub:
		_, err := fmt.Fprint(w, report.Markdown(rep))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
