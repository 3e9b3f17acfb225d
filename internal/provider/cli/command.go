package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"
)

const (
	// DefaultTemplate drives Factory's droid CLI in streaming JSON mode.
	DefaultTemplate = "droid exec --model {model} --output-format stream-json --input-format stream-json --auto low"
	// DefaultModel is used when the configuration names no model.
	DefaultModel = "custom:GLM-4.7-[Z.AI-Coding-Plan]-7"

	sessionFlag        = "-s"
	sessionPlaceholder = "{sessionId}"
)

// flags whose value is dropped along with the flag when it resolves empty
var optionalFlags = []string{"--session-id", "-s", "--spec-dir", "--project-dir"}

// Vars fills the template placeholders.
type Vars struct {
	Model      string
	ProjectDir string
	SpecDir    string
	SessionID  string
}

func (v Vars) replacer() *strings.Replacer {
	orDot := func(s string) string {
		if s == "" {
			return "."
		}
		return s
	}
	return strings.NewReplacer(
		"{model}", v.Model,
		"{projectDir}", orDot(v.ProjectDir),
		"{specDir}", orDot(v.SpecDir),
		sessionPlaceholder, v.SessionID,
	)
}

// Command is a resolved invocation of the external program.
type Command struct {
	Args []string
	// Display is the substituted template, for logs and the first envelope.
	Display string
	// Streaming means the prompt goes to stdin as one JSON line.
	Streaming bool
	// JSONLines means stdout lines are decoded as JSON objects.
	JSONLines bool
}

// BuildCommand resolves template against vars. When vars carries a session
// id and the template has no session placeholder or flag, "-s <id>" is
// appended. Optional flags whose value resolved empty are removed.
func BuildCommand(template string, vars Vars) (Command, error) {
	words, err := shellwords.Parse(template)
	if err != nil {
		return Command{}, fmt.Errorf("parse command template: %w", err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("command template is empty")
	}

	if vars.SessionID != "" && !mentionsSession(words) {
		words = append(words, sessionFlag, sessionPlaceholder)
		template += " " + sessionFlag + " " + sessionPlaceholder
	}

	r := vars.replacer()
	args := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if slices.Contains(optionalFlags, words[i]) && i+1 < len(words) && r.Replace(words[i+1]) == "" {
			i++
			continue
		}
		args = append(args, r.Replace(words[i]))
	}

	streaming := strings.Contains(template, "stream-json")
	return Command{
		Args:      args,
		Display:   r.Replace(template),
		Streaming: streaming,
		JSONLines: streaming || strings.Contains(template, "--output-format json"),
	}, nil
}

func mentionsSession(words []string) bool {
	for _, w := range words {
		if w == sessionFlag || w == "--session-id" || strings.Contains(w, sessionPlaceholder) {
			return true
		}
	}
	return false
}
