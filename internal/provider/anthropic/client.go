package anthropic

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
	"github.com/Holovkat/Auto-Claude/internal/store"
	"github.com/Holovkat/Auto-Claude/internal/turn"
	"github.com/Holovkat/Auto-Claude/retry"
	"github.com/Holovkat/Auto-Claude/tool"
)

const (
	providerName     = "claude"
	defaultMaxTokens = 8192
)

// Transport opens one streamed message.
type Transport interface {
	Stream(ctx context.Context, params anthropic.MessageNewParams) iter.Seq2[anthropic.MessageStreamEventUnion, error]
}

type sdkTransport struct {
	client anthropic.Client
}

func (t *sdkTransport) Stream(ctx context.Context, params anthropic.MessageNewParams) iter.Seq2[anthropic.MessageStreamEventUnion, error] {
	return func(yield func(anthropic.MessageStreamEventUnion, error) bool) {
		stream := t.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			if !yield(stream.Current(), nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(anthropic.MessageStreamEventUnion{}, wrapError(err))
		}
	}
}

type settings struct {
	MaxTokens int64 `json:"max_tokens"`
}

// Runtime is a Claude agent loop with its own history and tools.
type Runtime struct {
	transport Transport
	model     string
	maxTokens int64
	registry  *tool.Registry
	tools     []anthropic.ToolUnionParam
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

// Option configures the Runtime.
type Option func(*Runtime)

func WithTransport(t Transport) Option {
	return func(r *Runtime) { r.transport = t }
}

func WithRegistry(reg *tool.Registry) Option {
	return func(r *Runtime) { r.registry = reg }
}

func WithRetry(c retry.Config) Option {
	return func(r *Runtime) { r.retry = c }
}

// WithCloser registers a resource released by Close.
func WithCloser(fn func() error) Option {
	return func(r *Runtime) { r.closers = append(r.closers, fn) }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// New creates a Claude runtime. A missing ANTHROPIC_API_KEY is a
// configuration error unless WithTransport is given.
func New(cfg ai.EngineConfig, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	s := settings{MaxTokens: defaultMaxTokens}
	if err := cfg.DecodeSettings(&s); err != nil {
		return nil, err
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = defaultMaxTokens
	}

	r := &Runtime{
		model:     cfg.Model,
		maxTokens: s.MaxTokens,
		retry:     retry.DefaultConfig(),
		obs:       cfg.Observer,
		logger:    slog.Default(),
		history:   store.NewHistory(cfg.SystemPrompt),
		machine:   turn.New(providerName, cfg.MaxTurns, cfg.Observer),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.transport == nil {
		apiKey := cfg.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, &ai.ConfigError{Field: "ANTHROPIC_API_KEY", Reason: "must be set for the claude provider"}
		}
		r.transport = &sdkTransport{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
	}
	if r.registry == nil {
		r.registry = tool.Builtins(cfg.AllowedTools, tool.WithCwd(cfg.Cwd))
	}
	r.tools = convertTools(r.registry.Tools())
	return r, nil
}

func (r *Runtime) Submit(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ai.ErrClosed
	}
	r.history.Append(ai.Message{Role: ai.RoleUser, Content: message})
	r.pending = true
	return nil
}

func (r *Runtime) SetSystemPrompt(prompt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ai.ErrClosed
	}
	r.history.SetSystem(prompt)
	return nil
}

// Stream runs the submitted turn until Claude stops requesting tools.
func (r *Runtime) Stream(ctx context.Context) iter.Seq[ai.Envelope] {
	return func(yield func(ai.Envelope) bool) {
		if !r.takePending() {
			return
		}
		m := r.machine
		m.Begin()
		defer m.Finish()

		for {
			m.Request()
			msg, ok := r.streamMessage(ctx, yield)
			if !ok {
				return
			}
			calls := extractToolCalls(msg)
			r.history.Append(ai.Message{Role: ai.RoleAssistant, Content: textOf(msg), ToolCalls: calls})
			if len(calls) == 0 {
				return
			}

			for _, call := range calls {
				if !yield(ai.ToolUse(call)) {
					r.history.Append(ai.NewToolResultMessage(unanswered(calls, cancelledResult)...))
					return
				}
			}
			if !m.ToolsRequested() {
				r.history.Append(ai.NewToolResultMessage(unanswered(calls, truncatedResult)...))
				yield(m.Truncate())
				return
			}
			m.Execute()

			results := make([]ai.ToolResult, 0, len(calls))
			for _, call := range calls {
				m.ToolStart(call)
				result := r.registry.Dispatch(ctx, call)
				m.ToolDone(result)
				results = append(results, result)
				if !yield(ai.ToolOutcome(result)) {
					break
				}
			}
			stopped := len(results) < len(calls)
			results = append(results, unanswered(calls[len(results):], cancelledResult)...)
			r.history.Append(ai.NewToolResultMessage(results...))
			if stopped || ctx.Err() != nil {
				return
			}
		}
	}
}

func (r *Runtime) takePending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.pending {
		return false
	}
	r.pending = false
	return true
}

// streamMessage yields text deltas while accumulating the full message.
func (r *Runtime) streamMessage(ctx context.Context, yield func(ai.Envelope) bool) (anthropic.Message, bool) {
	r.mu.Lock()
	msgs, system := convertMessages(r.history.Messages())
	r.mu.Unlock()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(r.tools) > 0 {
		params.Tools = r.tools
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	open := func() iter.Seq2[anthropic.MessageStreamEventUnion, error] {
		return r.transport.Stream(ctx, params)
	}

	var acc anthropic.Message
	for ev, err := range retry.Stream(ctx, r.retry, retry.Observe(r.obs, providerName), open) {
		if err != nil {
			r.keepPartial(acc)
			yield(r.machine.Fail(err))
			return acc, false
		}
		if err := acc.Accumulate(ev); err != nil {
			r.logger.Warn("anthropic: accumulate event", "type", ev.Type, "error", err)
			continue
		}
		if ev.Type != "content_block_delta" {
			continue
		}
		delta := ev.AsContentBlockDelta()
		if text := delta.Delta.AsTextDelta(); text.Type == "text_delta" && text.Text != "" {
			if !yield(ai.TextDelta(text.Text)) {
				r.keepPartial(acc)
				return acc, false
			}
		}
	}
	return acc, true
}

// keepPartial records the text of an interrupted response.
func (r *Runtime) keepPartial(msg anthropic.Message) {
	if text := textOf(msg); text != "" {
		r.history.Append(ai.Message{Role: ai.RoleAssistant, Content: text})
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

// Close marks the runtime closed and releases registered resources. The SDK
// client itself holds nothing that needs releasing.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.pending = false
		r.mu.Unlock()

		var errs []error
		for _, fn := range r.closers {
			errs = append(errs, fn())
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

var _ ai.Engine = (*Runtime)(nil)
