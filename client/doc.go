// Package client builds an engine for an [ai.EngineConfig].
//
// The provider is taken from EngineConfig.Provider or, when that is empty,
// inferred from the model name. The factory assembles the tool registry
// (enabled built-ins behind the security gate, plus any allowed tools from
// configured MCP servers) and hands it to the adapter, which owns and
// releases everything it was given:
//
//	cfg := client.ConfigFromEnv()
//	cfg.SystemPrompt = prompt
//	engine, err := client.New(ctx, cfg, client.WithGate(policy))
//	if err != nil {
//	    return err
//	}
//	return ai.Use(engine, func(e ai.Engine) error {
//	    envs, err := ai.Run(ctx, e, "Summarize README.md")
//	    ...
//	})
package client
