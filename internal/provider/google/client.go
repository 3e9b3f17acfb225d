package google

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
	"github.com/Holovkat/Auto-Claude/internal/store"
	"github.com/Holovkat/Auto-Claude/internal/turn"
	"github.com/Holovkat/Auto-Claude/retry"
	"github.com/Holovkat/Auto-Claude/tool"
)

const providerName = "gemini"

// Transport opens one streamed generation. *genai.Models satisfies it.
type Transport interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Engine drives the Gemini API, which reports function calls as parts
// embedded in ordinary response chunks.
type Engine struct {
	transport Transport
	model     string
	registry  *tool.Registry
	retry     retry.Config
	obs       event.Observer
	logger    *slog.Logger
	closers   []func() error

	mu      sync.Mutex
	config  *genai.GenerateContentConfig
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

// WithRegistry sets the tools exposed to the model. By default the
// enabled built-ins are registered with a deny-all shell gate.
func WithRegistry(r *tool.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithRetry sets the policy for reopening a stream that fails before output.
func WithRetry(c retry.Config) Option {
	return func(e *Engine) { e.retry = c }
}

// WithCloser registers a resource released by Close, such as an MCP server.
func WithCloser(fn func() error) Option {
	return func(e *Engine) { e.closers = append(e.closers, fn) }
}

// WithLogger sets the logger for diagnostics that are not engine events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a Gemini engine. Without WithTransport it needs
// GEMINI_API_KEY or GOOGLE_API_KEY.
func New(ctx context.Context, cfg ai.EngineConfig, opts ...Option) (*Engine, error) {
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
		cc, err := clientConfig(cfg)
		if err != nil {
			return nil, err
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, &ai.ConfigError{Field: "GEMINI_API_KEY", Reason: "create client", Cause: err}
		}
		e.transport = client.Models
	}
	if e.registry == nil {
		e.registry = tool.Builtins(cfg.AllowedTools, tool.WithCwd(cfg.Cwd))
	}

	e.config = e.buildConfig(cfg.SystemPrompt)
	e.logger.Debug("gemini engine ready", "model", e.model, "tools", e.registry.Names())
	return e, nil
}

// buildConfig registers the tool declarations and system instruction.
func (e *Engine) buildConfig(system string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(system),
	}
	if tools := convertTools(e.registry.Tools()); tools != nil {
		config.Tools = tools
		config.ToolConfig = autoToolConfig()
	}
	return config
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

// SetSystemPrompt rebuilds the generation config. History is kept.
func (e *Engine) SetSystemPrompt(prompt string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ai.ErrClosed
	}
	e.history.SetSystem(prompt)
	e.config = e.buildConfig(prompt)
	return nil
}

// Stream runs the submitted turn. Each chunk's text is yielded as it
// arrives; function calls are collected and, once the pass ends, executed
// in order with their results sent back as the next request.
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
				e.history.Append(ai.NewToolResultMessage(unanswered(calls, truncatedResult)...))
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

// streamPass consumes one streamed response. It returns the function calls
// seen, and false when the consumer stopped or the transport failed.
func (e *Engine) streamPass(ctx context.Context, yield func(ai.Envelope) bool) ([]ai.ToolCall, bool) {
	e.mu.Lock()
	contents := convertHistory(e.history.Conversation())
	config := e.config
	e.mu.Unlock()

	open := func() iter.Seq2[*genai.GenerateContentResponse, error] {
		return e.transport.GenerateContentStream(ctx, e.model, contents, config)
	}

	var text strings.Builder
	var calls []ai.ToolCall
	record := func(aborted bool) {
		if text.Len() > 0 || len(calls) > 0 {
			e.history.Append(ai.Message{Role: ai.RoleAssistant, Content: text.String(), ToolCalls: calls})
		}
		if aborted && len(calls) > 0 {
			e.history.Append(ai.NewToolResultMessage(unanswered(calls, cancelledResult)...))
		}
	}

	for resp, err := range retry.Stream(ctx, e.retry, retry.Observe(e.obs, providerName), open) {
		if err != nil {
			record(true)
			yield(e.machine.Fail(wrapError(err)))
			return nil, false
		}
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			record(true)
			yield(e.machine.Fail(&BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}))
			return nil, false
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			var env ai.Envelope
			switch {
			case part.FunctionCall != nil:
				call := toolCall(part)
				calls = append(calls, call)
				env = ai.ToolUse(call)
			case part.Text != "" && !part.Thought:
				text.WriteString(part.Text)
				env = ai.TextDelta(part.Text)
			default:
				continue
			}
			if !yield(env) {
				record(true)
				return nil, false
			}
		}
	}

	record(false)
	return calls, true
}

// executeTools runs calls sequentially, yielding each outcome, and appends
// the results as one tool message. If the consumer stops early the calls not
// yet run are answered with a cancellation error so history stays paired.
func (e *Engine) executeTools(ctx context.Context, calls []ai.ToolCall, yield func(ai.Envelope) bool) bool {
	results := make([]ai.ToolResult, 0, len(calls))
	defer func() {
		results = append(results, unanswered(calls[len(results):], cancelledResult)...)
		e.history.Append(ai.NewToolResultMessage(results...))
	}()

	for _, call := range calls {
		e.machine.ToolStart(call)
		result := e.registry.Dispatch(ctx, call)
		e.machine.ToolDone(result)
		results = append(results, result)
		if !yield(ai.ToolOutcome(result)) {
			return false
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return true
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
