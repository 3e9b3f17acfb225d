package autoclaude

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Holovkat/Auto-Claude/event"
)

// DefaultMaxTurns bounds tool-resolution rounds when EngineConfig.MaxTurns is zero.
const DefaultMaxTurns = 1000

// MCPServerConfig describes an external tool server launched over stdio.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// EngineConfig is handed to exactly one engine at construction. Engines copy
// it; only SetSystemPrompt changes it afterwards.
type EngineConfig struct {
	Model        string
	SystemPrompt string
	// Provider may be empty, in which case it is inferred from Model.
	Provider Provider
	// SpecDir holds per-spec state such as the subprocess session marker.
	SpecDir      string
	AllowedTools []string
	MCPServers   map[string]MCPServerConfig
	// MaxTurns bounds tool-resolution rounds within one turn.
	MaxTurns int
	Cwd      string
	// Settings is a backend-specific blob: inline JSON or a path to a JSON file.
	Settings string
	// Env overrides process environment lookups.
	Env      map[string]string
	Verbose  bool
	Observer event.Observer
}

// Validate reports configuration that no engine can be built from.
func (c EngineConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return &ConfigError{Field: "Model", Reason: "is required"}
	}
	if c.MaxTurns < 0 {
		return &ConfigError{Field: "MaxTurns", Reason: "must not be negative"}
	}
	if c.Provider != "" {
		if _, err := ParseProvider(string(c.Provider)); err != nil {
			return err
		}
	}
	for name, srv := range c.MCPServers {
		if srv.Command == "" {
			return &ConfigError{Field: "MCPServers", Reason: "server " + name + " has no command"}
		}
	}
	return nil
}

// WithDefaults fills in MaxTurns, Cwd and Provider.
func (c EngineConfig) WithDefaults() EngineConfig {
	if c.MaxTurns == 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.Cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Cwd = wd
		}
	}
	if c.Provider == "" {
		c.Provider = InferProvider(c.Model)
	} else if p, err := ParseProvider(string(c.Provider)); err == nil {
		c.Provider = p
	}
	c.AllowedTools = append([]string(nil), c.AllowedTools...)
	return c
}

// Getenv returns the first non-empty value among keys. Every key is looked
// up in Env before any is looked up in the process environment.
func (c EngineConfig) Getenv(keys ...string) string {
	for _, k := range keys {
		if v := c.Env[k]; v != "" {
			return v
		}
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// DecodeSettings unmarshals Settings into v. Settings may hold inline JSON or
// name a JSON file. An empty Settings leaves v untouched.
func (c EngineConfig) DecodeSettings(v any) error {
	raw := strings.TrimSpace(c.Settings)
	if raw == "" {
		return nil
	}
	data := []byte(raw)
	if !strings.HasPrefix(raw, "{") {
		var err error
		data, err = os.ReadFile(raw)
		if err != nil {
			return &ConfigError{Field: "Settings", Reason: "unreadable settings file", Cause: err}
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ConfigError{Field: "Settings", Reason: "invalid settings JSON", Cause: err}
	}
	return nil
}
