// Command aguiserver exposes engine turns over the AG-UI protocol as
// server-sent events, for AG-UI frontends such as CopilotKit.
//
// Each POST to /api/agent runs one turn on a fresh engine: the last user
// message is the prompt and any system messages become the system prompt.
//
// Configuration is via environment variables (a .env file is loaded first):
//
//	AGUI_PORT             - server port (default: 8080)
//	AUTO_CLAUDE_PROVIDER  - claude, gemini, openai or cli
//	AUTO_CLAUDE_MODEL     - model name
//	AUTO_CLAUDE_MAX_TURNS - tool rounds per turn
//	AUTO_CLAUDE_LOG_LEVEL - debug, info, warn or error
//
// plus the provider keys read by the engines.
//
// Usage:
//
//	AUTO_CLAUDE_PROVIDER=gemini go run ./cmd/aguiserver
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/client"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel(os.Getenv("AUTO_CLAUDE_LOG_LEVEL")),
		TimeFormat: time.Kitchen,
	})))

	port := os.Getenv("AGUI_PORT")
	if port == "" {
		port = "8080"
	}

	base := client.ConfigFromEnv()
	if base.Cwd == "" {
		base.Cwd, _ = os.Getwd()
	}
	factory := func(ctx context.Context, system string) (ai.Engine, error) {
		cfg := base
		cfg.SystemPrompt = system
		return client.New(ctx, cfg, client.WithLogger(slog.Default()))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/agent", corsMiddleware(NewAgentHandler(factory)))
	mux.HandleFunc("/health", healthHandler)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE streams are open-ended
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("AG-UI server starting", "port", port, "provider", base.Provider, "model", base.Model)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
