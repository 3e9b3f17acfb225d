package openai

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
	"github.com/Holovkat/Auto-Claude/internal/store"
	"github.com/Holovkat/Auto-Claude/internal/turn"
	"github.com/Holovkat/Auto-Claude/retry"
	"github.com/Holovkat/Auto-Claude/tool"
)

const (
	providerName = "openai"

	DefaultBaseURL = "https://api.openai.com/v1"
	ZAIBaseURL     = "https://api.z.ai/api/coding/paas/v4"

	// placeholderKey lets keyless local endpoints such as Ollama through the
	// SDK's key check.
	placeholderKey = "dummy-key"
)

// Transport opens one streamed chat completion.
type Transport interface {
	Stream(ctx context.Context, params openai.ChatCompletionNewParams) iter.Seq2[Delta, error]
}

type sdkTransport struct {
	client openai.Client
}

func (t *sdkTransport) Stream(ctx context.Context, params openai.ChatCompletionNewParams) iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		stream := t.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0].Delta
			d := Delta{Content: choice.Content}
			for _, tc := range choice.ToolCalls {
				d.ToolCalls = append(d.ToolCalls, ToolCallDelta{
					Index:     int(tc.Index),
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}
			if !yield(d, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(Delta{}, wrapError(err))
		}
	}
}

// Endpoint resolves the API key and base URL for cfg. A model or URL that
// points at Z.ai swaps the OpenAI default for the Z.ai coding endpoint.
func Endpoint(cfg ai.EngineConfig) (apiKey, baseURL string) {
	apiKey = cfg.Getenv("ZAI_API_KEY", "OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = placeholderKey
	}
	baseURL = cfg.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if strings.Contains(baseURL, "z.ai") || strings.Contains(strings.ToLower(cfg.Model), "glm") {
		if strings.Contains(baseURL, "api.openai.com") {
			baseURL = ZAIBaseURL
		}
	}
	return apiKey, baseURL
}

// Engine drives an OpenAI-compatible streaming API, where tool calls arrive
// as fragments addressed by index.
type Engine struct {
	transport Transport
	model     string
	registry  *tool.Registry
	tools     []openai.ChatCompletionToolParam
	retry     retry.Config
	obs       event.Observer
	logger    *slog.Logger
	closers   []func() error

	mu      sync.Mutex
	history *store.History
	machine *turn.Machine
	pending bool
	closed  bool

	closeOnce sync.Once
	closeErr  error
}

// Option configures the Engine.
type Option func(*Engine)

// WithTransport replaces the SDK client, typically with a scripted fake.
func WithTransport(t Transport) Option {
	return func(e *Engine) { e.transport = t }
}

// WithRegistry sets the tools exposed to the model.
func WithRegistry(r *tool.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

func WithRetry(c retry.Config) Option {
	return func(e *Engine) { e.retry = c }
}

// WithCloser registers a resource released by Close.
func WithCloser(fn func() error) Option {
	return func(e *Engine) { e.closers = append(e.closers, fn) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for OpenAI, Z.ai GLM or any compatible endpoint.
// It never fails for a missing key; see Endpoint.
func New(cfg ai.EngineConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	e := &Engine{
		model:   cfg.Model,
		retry:   retry.DefaultConfig(),
		obs:     cfg.Observer,
		logger:  slog.Default(),
		history: store.NewHistory(cfg.SystemPrompt),
		machine: turn.New(providerName, cfg.MaxTurns, cfg.Observer),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.transport == nil {
		apiKey, baseURL := Endpoint(cfg)
		e.transport = &sdkTransport{client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		)}
		e.logger.Debug("openai endpoint", "base_url", baseURL)
	}
	if e.registry == nil {
		e.registry = tool.Builtins(cfg.AllowedTools, tool.WithCwd(cfg.Cwd))
	}
	e.tools = convertTools(e.registry.Tools())
	return e, nil
}

// Submit appends the user message; the request is sent by Stream.
func (e *Engine) Submit(_ context.Context, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ai.ErrClosed
	}
	e.history.Append(ai.Message{Role: ai.RoleUser, Content: message})
	e.pending = true
	return nil
}

// SetSystemPrompt replaces the leading system message in place.
func (e *Engine) SetSystemPrompt(prompt string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ai.ErrClosed
	}
	e.history.SetSystem(prompt)
	return nil
}

// Stream runs the submitted turn. Text deltas are yielded as they arrive;
// tool calls are reconstructed by index, then announced and executed in
// order once the pass ends, and the results are sent as the next request.
func (e *Engine) Stream(ctx context.Context) iter.Seq[ai.Envelope] {
	return func(yield func(ai.Envelope) bool) {
		if !e.takePending() {
			return
		}
		m := e.machine
		m.Begin()
		defer m.Finish()

		for {
			m.Request()
			calls, ok := e.streamPass(ctx, yield)
			if !ok || len(calls) == 0 {
				return
			}
			if !m.ToolsRequested() {
				e.appendResults(unanswered(calls, truncatedResult))
				yield(m.Truncate())
				return
			}
			m.Execute()
			if !e.executeTools(ctx, calls, yield) {
				return
			}
		}
	}
}

func (e *Engine) takePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.pending {
		return false
	}
	e.pending = false
	return true
}

func (e *Engine) params() openai.ChatCompletionNewParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	params := openai.ChatCompletionNewParams{
		Model:    e.model,
		Messages: convertHistory(e.history.Messages()),
	}
	if len(e.tools) > 0 {
		params.Tools = e.tools
		params.ToolChoice = autoToolChoice()
	}
	return params
}

// streamPass consumes one streamed response and returns the reconstructed
// calls, announced as ToolUse envelopes. It reports false when the consumer
// stopped or the transport failed.
func (e *Engine) streamPass(ctx context.Context, yield func(ai.Envelope) bool) ([]ai.ToolCall, bool) {
	params := e.params()
	open := func() iter.Seq2[Delta, error] {
		return e.transport.Stream(ctx, params)
	}

	var content strings.Builder
	var acc accumulator
	finish := func() []ai.ToolCall {
		var calls []ai.ToolCall
		if !acc.empty() {
			calls = acc.calls()
		}
		if content.Len() > 0 || len(calls) > 0 {
			e.history.Append(ai.Message{Role: ai.RoleAssistant, Content: content.String(), ToolCalls: calls})
		}
		return calls
	}

	for d, err := range retry.Stream(ctx, e.retry, retry.Observe(e.obs, providerName), open) {
		if err != nil {
			e.appendResults(unanswered(finish(), cancelledResult))
			yield(e.machine.Fail(err))
			return nil, false
		}
		for _, tc := range d.ToolCalls {
			acc.add(tc)
		}
		if d.Content == "" {
			continue
		}
		content.WriteString(d.Content)
		if !yield(ai.TextDelta(d.Content)) {
			e.appendResults(unanswered(finish(), cancelledResult))
			return nil, false
		}
	}

	calls := finish()
	for i, call := range calls {
		if !yield(ai.ToolUse(call)) {
			e.appendResults(unanswered(calls[i:], cancelledResult))
			return nil, false
		}
	}
	return calls, true
}

// executeTools runs calls sequentially, appending each result to history as
// its own tool entry and yielding it as a ToolOutcome.
func (e *Engine) executeTools(ctx context.Context, calls []ai.ToolCall, yield func(ai.Envelope) bool) bool {
	for i, call := range calls {
		e.machine.ToolStart(call)
		result := e.registry.Dispatch(ctx, call)
		e.machine.ToolDone(result)
		e.appendResults([]ai.ToolResult{result})

		if !yield(ai.ToolOutcome(result)) || ctx.Err() != nil {
			e.appendResults(unanswered(calls[i+1:], cancelledResult))
			return false
		}
	}
	return true
}

func (e *Engine) appendResults(results []ai.ToolResult) {
	for _, r := range results {
		e.history.Append(ai.NewToolResultMessage(r))
	}
}

const (
	cancelledResult = "Error: Tool execution cancelled."
	truncatedResult = "Error: Turn limit reached before this tool ran."
)

func unanswered(calls []ai.ToolCall, content string) []ai.ToolResult {
	out := make([]ai.ToolResult, len(calls))
	for i, call := range calls {
		out[i] = ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: content, IsError: true}
	}
	return out
}

// Close releases registered resources. Calling it again returns the first
// result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.pending = false
		e.mu.Unlock()

		var errs []error
		for _, fn := range e.closers {
			errs = append(errs, fn())
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

var _ ai.Engine = (*Engine)(nil)
