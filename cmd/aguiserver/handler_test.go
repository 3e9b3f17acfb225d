package main

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/Holovkat/Auto-Claude"
)

type fakeEngine struct {
	system    string
	submitted string
	closed    int
	envs      []ai.Envelope
}

func (f *fakeEngine) Submit(_ context.Context, message string) error {
	f.submitted = message
	return nil
}

func (f *fakeEngine) Stream(context.Context) iter.Seq[ai.Envelope] {
	return slices.Values(f.envs)
}

func (f *fakeEngine) SetSystemPrompt(p string) error {
	f.system = p
	return nil
}

func (f *fakeEngine) Close() error {
	f.closed++
	return nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/agent", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAgentHandler(t *testing.T) {
	fake := &fakeEngine{envs: []ai.Envelope{
		ai.TextDelta("hi "),
		ai.ToolUse(ai.ToolCall{ID: "c1", Name: "Glob", Arguments: map[string]any{"pattern": "*"}}),
		ai.ToolOutcome(ai.ToolResult{ToolCallID: "c1", Content: "a.go"}),
	}}
	h := NewAgentHandler(func(_ context.Context, system string) (ai.Engine, error) {
		fake.system = system
		return fake, nil
	})

	rec := post(t, h, `{"threadId":"th","runId":"run","messages":[
		{"id":"s","role":"system","content":"be brief"},
		{"id":"u","role":"user","content":"list files"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "list files", fake.submitted)
	assert.Equal(t, "be brief", fake.system)
	assert.Equal(t, 1, fake.closed)

	body := rec.Body.String()
	for _, typ := range []string{"RUN_STARTED", "TEXT_MESSAGE_START", "TEXT_MESSAGE_END", "TOOL_CALL_START", "TOOL_CALL_ARGS", "TOOL_CALL_RESULT", "RUN_FINISHED"} {
		assert.Contains(t, body, "event: "+typ+"\n")
	}
	assert.Less(t, strings.Index(body, "RUN_STARTED"), strings.Index(body, "RUN_FINISHED"))
}

// failingWriter rejects the first frame containing failOn.
type failingWriter struct {
	*httptest.ResponseRecorder
	failOn string
	failed bool
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if !f.failed && strings.Contains(string(p), f.failOn) {
		f.failed = true
		return 0, errors.New("connection reset")
	}
	return f.ResponseRecorder.Write(p)
}

func TestAgentHandlerWriteFailure(t *testing.T) {
	fake := &fakeEngine{envs: []ai.Envelope{
		ai.TextDelta("hi"),
		ai.ToolUse(ai.ToolCall{ID: "c1", Name: "Glob"}),
		ai.ToolOutcome(ai.ToolResult{ToolCallID: "c1", Content: "a.go"}),
	}}
	h := NewAgentHandler(func(context.Context, string) (ai.Engine, error) { return fake, nil })

	w := &failingWriter{ResponseRecorder: httptest.NewRecorder(), failOn: "TOOL_CALL_START"}
	req := httptest.NewRequest(http.MethodPost, "/api/agent",
		strings.NewReader(`{"messages":[{"id":"u","role":"user","content":"hi"}]}`))
	h.ServeHTTP(w, req)

	require.True(t, w.failed)
	body := w.Body.String()
	assert.Contains(t, body, "event: RUN_STARTED\n")
	assert.Contains(t, body, "event: RUN_ERROR\n")
	assert.Contains(t, body, "connection reset")
	assert.NotContains(t, body, "TOOL_CALL_RESULT")
	assert.NotContains(t, body, "RUN_FINISHED")
	assert.Equal(t, 1, fake.closed)
}

func TestAgentHandlerRejects(t *testing.T) {
	h := NewAgentHandler(func(context.Context, string) (ai.Engine, error) {
		return nil, errors.New("no key")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/agent", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, http.StatusBadRequest, post(t, h, `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"messages":[]}`).Code)

	rec = post(t, h, `{"messages":[{"id":"u","role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no key")
}

func TestCORSAndHealth(t *testing.T) {
	h := corsMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight reached the handler")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/agent", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", logLevel("debug").String())
	assert.Equal(t, "INFO", logLevel("bogus").String())
}
