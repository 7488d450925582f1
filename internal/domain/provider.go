package domain

import "time"

// ProviderKind identifies a reply-generation tier.
type ProviderKind string

const (
	ProviderOllama ProviderKind = "ollama"
	ProviderGemini ProviderKind = "gemini"
	ProviderOpenAI ProviderKind = "openai"
	ProviderRules  ProviderKind = "rules"
)

// ApologyText replaces the reply when a provider answered successfully but
// nothing usable could be extracted.
const ApologyText = "Sorry — I couldn't generate a response."

// ProviderConfig is read once at startup and never mutated afterwards.
type ProviderConfig struct {
	Kind    ProviderKind
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Configured reports whether the tier is eligible. The self-hosted tier is
// gated on its base URL, hosted tiers on their API key.
func (c ProviderConfig) Configured() bool {
	switch c.Kind {
	case ProviderOllama:
		return c.BaseURL != ""
	case ProviderGemini, ProviderOpenAI:
		return c.APIKey != ""
	default:
		return false
	}
}

// Reply is the normalized output of any adapter or the rule engine.
type Reply struct {
	Text     string
	Provider ProviderKind
	Model    string
	Fallback bool
}

// DisplayName is the human-facing provider name used in diagnostics.
func (k ProviderKind) DisplayName() string {
	switch k {
	case ProviderOllama:
		return "Ollama"
	case ProviderGemini:
		return "Gemini"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderRules:
		return "Rules"
	default:
		return string(k)
	}
}
