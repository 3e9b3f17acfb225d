// Package agui exposes engine turns over the AG-UI protocol.
//
// A [Mapper] converts the envelopes of one turn into AG-UI events. Runs of
// consecutive text deltas become one TEXT_MESSAGE_START / CONTENT / END
// sequence, each tool use becomes TOOL_CALL_START / ARGS / END, and each
// tool outcome a TOOL_CALL_RESULT. [Mapper.MapStream] wraps the whole turn
// in RUN_STARTED and RUN_FINISHED:
//
//	mapper := agui.NewMapper(input.ThreadID, input.RunID)
//	for ev := range mapper.MapStream(engine.Stream(ctx)) {
//	    if err := agui.WriteSSE(w, ev); err != nil {
//	        return err
//	    }
//	}
//
// The Mapper is not safe for concurrent use; create one per run.
package agui
