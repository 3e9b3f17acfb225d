package main

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fatih/color"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/agui"
)

// maxOutcomeLines caps how much of a tool result is echoed to the terminal.
const maxOutcomeLines = 12

type renderer struct {
	w       io.Writer
	call    *color.Color
	ok      *color.Color
	failed  *color.Color
	lastEOL bool
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{
		w:       w,
		call:    color.New(color.FgCyan, color.Bold),
		ok:      color.New(color.FgHiBlack),
		failed:  color.New(color.FgRed),
		lastEOL: true,
	}
}

func (r *renderer) render(env ai.Envelope) {
	switch env.Kind {
	case ai.KindTextDelta:
		fmt.Fprint(r.w, env.Text)
		r.lastEOL = strings.HasSuffix(env.Text, "\n")
	case ai.KindToolUse:
		r.newline()
		r.call.Fprintf(r.w, "● %s(%s)\n", env.Call.Name, env.Call.ArgumentsJSON())
	case ai.KindToolOutcome:
		r.newline()
		c := r.ok
		if env.Result.IsError {
			c = r.failed
		}
		for _, line := range clip(env.Result.Content, maxOutcomeLines) {
			c.Fprintf(r.w, "  ⎿ %s\n", line)
		}
	}
}

func (r *renderer) newline() {
	if !r.lastEOL {
		fmt.Fprintln(r.w)
	}
	r.lastEOL = true
}

// finish terminates a final partial line.
func (r *renderer) finish() { r.newline() }

func clip(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return lines
	}
	rest := len(lines) - n
	return append(lines[:n], fmt.Sprintf("… %d more lines", rest))
}

// streamText renders one turn for a terminal.
func streamText(w io.Writer, envs iter.Seq[ai.Envelope]) {
	r := newRenderer(w)
	for env := range envs {
		r.render(env)
	}
	r.finish()
}

// streamAGUI writes one turn as AG-UI server-sent events.
func streamAGUI(w io.Writer, envs iter.Seq[ai.Envelope]) error {
	mapper := agui.NewMapper("", "")
	for ev := range mapper.MapStream(envs) {
		if err := agui.WriteSSE(w, ev); err != nil {
			return err
		}
	}
	return nil
}
