// Package autoclaude lets an autonomous coding pipeline drive interchangeable
// language-model backends through one streaming protocol.
//
// Every backend is wrapped by an [Engine]: submit a user turn, range over the
// lazy [Envelope] sequence it produces, close it when done. Envelopes are
// backend-neutral: text fragments, tool-use requests and tool outcomes.
// Adapters that run their own tool loop execute the built-in tool set from
// the [github.com/Holovkat/Auto-Claude/tool] package between backend round
// trips, so a single Stream may span several requests.
//
// Construct engines with [github.com/Holovkat/Auto-Claude/client]:
//
//	eng, err := client.New(ctx, ai.EngineConfig{
//	    Model:        "gemini-2.5-pro",
//	    SystemPrompt: "You are a careful coding agent.",
//	    AllowedTools: []string{"Read", "Grep", "Bash"},
//	    Cwd:          projectDir,
//	}, client.WithGate(policy))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = ai.Use(eng, func(e ai.Engine) error {
//	    if err := e.Submit(ctx, "Summarize main.go"); err != nil {
//	        return err
//	    }
//	    for env := range e.Stream(ctx) {
//	        switch env.Kind {
//	        case ai.KindTextDelta:
//	            fmt.Print(env.Text)
//	        case ai.KindToolOutcome:
//	            fmt.Println("tool:", env.Result.Content)
//	        }
//	    }
//	    return nil
//	})
//
// # Errors
//
// Only construction fails with an error, usually a [*ConfigError]. Failures
// during a turn are reported in-band: transport problems become TextDelta
// envelopes and tool failures become "Error: ..." payloads, so an LLM-driven
// caller can react to them.
package autoclaude
