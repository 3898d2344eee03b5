// Package ci integrates gate runs with GitHub Actions.
package ci

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DetectCI returns true when running in GitHub Actions.
func DetectCI() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true")
}

// SetOutput sets a GitHub Actions output variable, e.g. gate=pass.
func SetOutput(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("ci: empty output name")
	}
	path := strings.TrimSpace(os.Getenv("GITHUB_OUTPUT"))
	if path == "" {
		return nil
	}
	return appendCommandFile(path, fmt.Sprintf("%s<<EOF\n%s\nEOF\n", name, value))
}

// SetJobSummary appends markdown to the workflow job summary.
func SetJobSummary(markdown string) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_STEP_SUMMARY"))
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return appendCommandFile(path, markdown)
}

// Annotate emits a GitHub Actions annotation at the given level.
func Annotate(level, message string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	switch lvl {
	case "error", "warning", "notice":
	default:
		lvl = "notice"
	}
	fmt.Printf("::%s::%s\n", lvl, escapeCommandValue(message))
}

func appendCommandFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func escapeCommandValue(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
