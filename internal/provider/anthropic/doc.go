// Package anthropic is the default managed runtime: a self-contained Claude
// agent loop over the Anthropic Messages API.
//
// The runtime streams text as it arrives, accumulates each response with
// [anthropic.Message.Accumulate], runs any requested tools through a
// [tool.Registry] and continues until Claude stops asking for tools. It is
// normally wrapped by the managed adapter rather than used directly:
//
//	rt, err := anthropic.New(cfg, anthropic.WithRegistry(reg))
//	if err != nil {
//	    return err
//	}
//	engine, err := managed.New(rt)
//
// ANTHROPIC_API_KEY is required unless a Transport is supplied. Settings may
// set "max_tokens" for each request.
package anthropic
