package suite

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed marks a suite descriptor that failed validation. Loader
// errors wrap it so callers can map the failure to a config-time abort.
var ErrMalformed = errors.New("malformed suite")

// Load reads and validates a suite descriptor from a YAML file.
func Load(path string) (*Suite, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suite: read %q: %w", path, err)
	}

	var s Suite
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("suite: parse %q: %v: %w", path, err, ErrMalformed)
	}
	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("suite: validate %q: %w", path, err)
	}
	return &s, nil
}

// Validate checks a suite descriptor for consistency. Case ids must be
// unique across the whole suite, thresholds must lie in [0,1], and the
// set-valued assertion kinds require a non-empty value set.
func Validate(s *Suite) error {
	if s == nil {
		return fmt.Errorf("nil suite: %w", ErrMalformed)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("missing suite name: %w", ErrMalformed)
	}
	if len(s.Categories) == 0 {
		return fmt.Errorf("suite %q: no categories: %w", s.Name, ErrMalformed)
	}

	seenCategories := make(map[string]struct{}, len(s.Categories))
	seenIDs := make(map[string]struct{})
	for i := range s.Categories {
		c := &s.Categories[i]
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("categories[%d]: missing name: %w", i, ErrMalformed)
		}
		if _, ok := seenCategories[name]; ok {
			return fmt.Errorf("categories[%d] (%s): duplicate category: %w", i, name, ErrMalformed)
		}
		seenCategories[name] = struct{}{}

		if c.Threshold != nil && (*c.Threshold < 0 || *c.Threshold > 1) {
			return fmt.Errorf("categories[%d] (%s): threshold %v outside [0,1]: %w", i, name, *c.Threshold, ErrMalformed)
		}

		for j := range c.Cases {
			tc := &c.Cases[j]
			id := strings.TrimSpace(tc.ID)
			if id == "" {
				return fmt.Errorf("%s: cases[%d]: missing id: %w", name, j, ErrMalformed)
			}
			if _, ok := seenIDs[id]; ok {
				return fmt.Errorf("%s: cases[%d] (%s): duplicate id: %w", name, j, id, ErrMalformed)
			}
			seenIDs[id] = struct{}{}

			if strings.TrimSpace(tc.Question) == "" && strings.TrimSpace(s.Question) == "" {
				return fmt.Errorf("%s: cases[%d] (%s): no question template: %w", name, j, id, ErrMalformed)
			}
			for k := range tc.Assert {
				if err := validateAssertion(&tc.Assert[k]); err != nil {
					return fmt.Errorf("%s: cases[%d] (%s): assert[%d]: %w", name, j, id, k, err)
				}
			}
		}
	}
	return nil
}

func validateAssertion(a *Assertion) error {
	kind, err := ParseKind(string(a.Kind))
	if err != nil {
		return err
	}
	a.Kind = kind

	switch kind {
	case KindContains, KindNotContains:
		if strings.TrimSpace(a.Value) == "" && len(a.Values) == 0 {
			return fmt.Errorf("%s: missing value: %w", kind, ErrMalformed)
		}
	case KindContainsAny, KindNotContainsAny:
		if len(a.Values) == 0 {
			return fmt.Errorf("%s: empty value set: %w", kind, ErrMalformed)
		}
	}
	for i, v := range a.Terms() {
		if v == "" {
			return fmt.Errorf("%s: values[%d]: empty string: %w", kind, i, ErrMalformed)
		}
	}
	return nil
}

// ParseKind normalizes an assertion kind string. Dash spellings
// ("not-contains-any") are accepted alongside the canonical snake_case.
func ParseKind(s string) (Kind, error) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch Kind(k) {
	case KindContains, KindNotContains, KindContainsAny, KindNotContainsAny:
		return Kind(k), nil
	case "":
		return "", fmt.Errorf("missing assertion kind: %w", ErrMalformed)
	default:
		return "", fmt.Errorf("unknown assertion kind %q: %w", s, ErrMalformed)
	}
}
