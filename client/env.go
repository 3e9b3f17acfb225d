package client

import (
	"os"
	"strconv"
	"strings"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/tool"
)

// DefaultModel is used when AUTO_CLAUDE_MODEL is unset. The cli provider
// has its own default.
const DefaultModel = "claude-opus-4-5-20251101"

// Environment variables read by ConfigFromEnv and New.
const (
	ModelEnv     = "AUTO_CLAUDE_MODEL"
	ProviderEnv  = "AUTO_CLAUDE_PROVIDER"
	MaxTurnsEnv  = "AUTO_CLAUDE_MAX_TURNS"
	SessionDBEnv = "AUTO_CLAUDE_SESSION_DB"
)

// ConfigFromEnv returns a configuration seeded from the process
// environment, with every built-in tool enabled. Callers typically load a
// .env file first.
func ConfigFromEnv() ai.EngineConfig {
	cfg := ai.EngineConfig{
		Model:        strings.TrimSpace(os.Getenv(ModelEnv)),
		Provider:     ai.Provider(strings.TrimSpace(os.Getenv(ProviderEnv))),
		AllowedTools: append([]string(nil), tool.BuiltinNames...),
	}
	if p, err := ResolveProvider(cfg); cfg.Model == "" && (err != nil || p != ai.ProviderCLI) {
		cfg.Model = DefaultModel
	}
	if n, err := strconv.Atoi(os.Getenv(MaxTurnsEnv)); err == nil && n > 0 {
		cfg.MaxTurns = n
	}
	return cfg
}
