package autoclaude

import "strings"

// Provider selects one of the four adapter kinds.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	// ProviderClaude delegates to a managed agent runtime.
	ProviderClaude Provider = "claude"
	// ProviderGemini drives a chat API that embeds function calls in chunks.
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI drives an OpenAI-compatible streaming API.
	ProviderOpenAI Provider = "openai"
	// ProviderCLI drives an external command-line program.
	ProviderCLI Provider = "cli"
)

var providerAliases = map[string]Provider{
	"":          ProviderClaude,
	"claude":    ProviderClaude,
	"anthropic": ProviderClaude,
	"gemini":    ProviderGemini,
	"google":    ProviderGemini,
	"openai":    ProviderOpenAI,
	"ollama":    ProviderOpenAI,
	"glm":       ProviderOpenAI,
	"zai":       ProviderOpenAI,
	"cli":       ProviderCLI,
	"custom":    ProviderCLI,
	"droid":     ProviderCLI,
}

// ParseProvider maps a provider tag or one of its aliases to a Provider.
func ParseProvider(s string) (Provider, error) {
	p, ok := providerAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", &ConfigError{Field: "Provider", Reason: "unknown provider " + s}
	}
	return p, nil
}

// InferProvider guesses the provider from a model identifier.
func InferProvider(model string) Provider {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "custom:"):
		return ProviderCLI
	case strings.HasPrefix(m, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"),
		strings.HasPrefix(m, "o4"), strings.Contains(m, "glm"):
		return ProviderOpenAI
	default:
		return ProviderClaude
	}
}
