// Package prompt renders case variables into question and context templates.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches {{name}} placeholders.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// UnboundVariableError reports a placeholder with no binding.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	if e == nil {
		return "prompt: unbound variable <nil>"
	}
	return fmt.Sprintf("prompt: unbound variable %q", e.Name)
}

// Render substitutes named placeholders in template with their bound values.
// It is pure: same template and vars always yield the same output. A
// placeholder without a binding fails with UnboundVariableError.
func Render(template string, vars map[string]string) (string, error) {
	if err := validateDelimiters(template); err != nil {
		return "", err
	}

	var unbound *UnboundVariableError
	out := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			if unbound == nil {
				unbound = &UnboundVariableError{Name: name}
			}
			return m
		}
		return v
	})
	if unbound != nil {
		return "", unbound
	}
	return out, nil
}

func validateDelimiters(s string) error {
	open := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' && s[i+1] == '{' {
			open++
			i++
			continue
		}
		if s[i] == '}' && s[i+1] == '}' {
			if open == 0 {
				return errors.New("prompt: unmatched \"}}\"")
			}
			open--
			i++
		}
	}
	if open != 0 {
		return errors.New("prompt: unmatched \"{{\"")
	}
	if strings.Contains(s, "{{}}") {
		return errors.New("prompt: empty placeholder")
	}
	return nil
}
