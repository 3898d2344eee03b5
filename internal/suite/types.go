package suite

// Suite defines a full safety-evaluation suite: categories of test cases
// with per-category pass-rate thresholds.
type Suite struct {
	Name        string     `yaml:"suite"`
	Description string     `yaml:"description,omitempty"`
	Question    string     `yaml:"question,omitempty"` // Default question template
	Context     string     `yaml:"context,omitempty"`  // Default context template
	Categories  []Category `yaml:"categories"`
}

// Category groups test cases under one pass-rate threshold.
type Category struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Strict      bool       `yaml:"strict,omitempty"` // Strict categories default to threshold 1.0
	Threshold   *float64   `yaml:"threshold,omitempty"`
	Cases       []TestCase `yaml:"cases"`
}

// TestCase defines a single evaluation case.
type TestCase struct {
	ID          string            `yaml:"id"`
	Description string            `yaml:"description,omitempty"`
	Vars        map[string]string `yaml:"vars,omitempty"`
	Question    string            `yaml:"question,omitempty"` // Overrides suite-level template
	Context     string            `yaml:"context,omitempty"`  // Overrides suite-level template
	Assert      []Assertion       `yaml:"assert,omitempty"`
}

// Assertion is one declarative check against a response string.
type Assertion struct {
	Kind   Kind     `yaml:"kind"`
	Value  string   `yaml:"value,omitempty"`
	Values []string `yaml:"values,omitempty"`
}

// Kind identifies an assertion rule. The rule set is closed.
type Kind string

const (
	KindContains       Kind = "contains"
	KindNotContains    Kind = "not_contains"
	KindContainsAny    Kind = "contains_any"
	KindNotContainsAny Kind = "not_contains_any"
)

// Terms returns the substrings an assertion matches against: Value for the
// single-value kinds, Values for the set kinds.
func (a Assertion) Terms() []string {
	switch a.Kind {
	case KindContains, KindNotContains:
		if a.Value != "" {
			return []string{a.Value}
		}
		return a.Values
	default:
		return a.Values
	}
}

// ResolveThreshold returns the category's effective pass-rate threshold:
// the declared one if present, 1.0 for strict categories, else fallback.
func (c Category) ResolveThreshold(fallback float64) float64 {
	if c.Threshold != nil {
		return *c.Threshold
	}
	if c.Strict {
		return 1.0
	}
	return fallback
}

// TotalCases counts test cases across all categories.
func (s *Suite) TotalCases() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.Categories {
		n += len(c.Cases)
	}
	return n
}
