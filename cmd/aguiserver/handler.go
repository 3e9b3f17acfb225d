package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/agui"
)

// EngineFactory builds the engine for one run.
type EngineFactory func(ctx context.Context, systemPrompt string) (ai.Engine, error)

// AgentHandler runs one engine turn per request and streams it as SSE.
type AgentHandler struct {
	newEngine EngineFactory
}

func NewAgentHandler(f EngineFactory) *AgentHandler {
	return &AgentHandler{newEngine: f}
}

func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	log := slog.With("run_id", input.RunID, "thread_id", input.ThreadID)

	prompt, err := input.Prompt()
	if err != nil {
		log.Warn("invalid input", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	engine, err := h.newEngine(ctx, input.SystemPrompt())
	if err != nil {
		log.Error("create engine", "error", err)
		http.Error(w, "create engine: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	mapper := agui.NewMapper(input.ThreadID, input.RunID)
	var eventCount int
	err = ai.Use(engine, func(e ai.Engine) error {
		if err := e.Submit(ctx, prompt); err != nil {
			return agui.WriteSSE(w, mapper.RunError(err))
		}
		for ev := range mapper.MapStream(e.Stream(ctx)) {
			eventCount++
			log.Debug("sending SSE event", "event_type", ev.Type(), "event_num", eventCount)
			if err := agui.WriteSSE(w, ev); err != nil {
				if rerr := agui.WriteSSE(w, mapper.RunError(err)); rerr != nil {
					log.Debug("send RUN_ERROR", "error", rerr)
				}
				return err
			}
		}
		return nil
	})

	duration := time.Since(start)
	if err != nil {
		log.Error("request failed", "duration_ms", duration.Milliseconds(), "events_sent", eventCount, "error", err)
		return
	}
	log.Info("request completed", "duration_ms", duration.Milliseconds(), "events_sent", eventCount)
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
