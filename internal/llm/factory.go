package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/qa-gate/internal/config"
)

// FromConfig builds the configured default provider. Providers without an
// API key are skipped so a bare config does not fail at startup.
func FromConfig(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	providers := make(map[string]Provider, len(cfg.LLM.Providers))
	for name, pcfg := range cfg.LLM.Providers {
		if strings.TrimSpace(pcfg.APIKey) == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "claude", "anthropic":
			providers["claude"] = NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model)
		case "openai":
			providers["openai"] = NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model)
		case "":
			continue
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("llm: no provider configured (set ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	}

	name := strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	if name == "anthropic" {
		name = "claude"
	}
	if p, ok := providers[name]; ok {
		return p, nil
	}
	if len(providers) == 1 {
		for _, p := range providers {
			return p, nil
		}
	}

	available := make([]string, 0, len(providers))
	for k := range providers {
		available = append(available, k)
	}
	sort.Strings(available)
	return nil, fmt.Errorf("llm: default provider %q not configured (available: %s)", name, strings.Join(available, ", "))
}
