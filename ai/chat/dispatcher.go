// Package chat runs one user turn: sniff intent, call the provider once,
// classify the reply.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/geminichat/ai/core/llm"
	"github.com/hrygo/geminichat/ai/filter"
	"github.com/hrygo/geminichat/ai/format"
	"github.com/hrygo/geminichat/ai/internal/strutil"
	"github.com/hrygo/geminichat/ai/metrics"
	"github.com/hrygo/geminichat/ai/observability/logging"
)

// SystemInstruction is sent with every request.
const SystemInstruction = `You are a helpful AI assistant that can respond in multiple formats.
If the user asks for code, provide well-formatted, working code with explanations.
If the user asks for formatted text or documentation, use markdown.
Otherwise, respond in plain text.
Be concise but thorough in your responses.`

// FallbackContent is shown in place of a reply when a turn fails.
const FallbackContent = "Sorry, I encountered an error processing your request. Please try again."

// Fallback returns the fixed decision rendered for a failed turn.
func Fallback() format.Decision {
	return format.Decision{Content: FallbackContent, Format: format.FormatText}
}

// Sender produces a formatted reply for one message.
type Sender interface {
	Dispatch(ctx context.Context, message, modelID string) (format.Decision, error)
}

// Dispatcher sends one message per call to the provider and formats the reply.
type Dispatcher struct {
	provider     llm.Provider
	formatter    *format.Formatter
	metrics      *metrics.PrometheusExporter
	defaultModel string
	intentHints  bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFormatter replaces the default rule set.
func WithFormatter(f *format.Formatter) Option {
	return func(d *Dispatcher) { d.formatter = f }
}

// WithMetrics records provider calls on the exporter.
func WithMetrics(m *metrics.PrometheusExporter) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(d *Dispatcher) {
		if model != "" {
			d.defaultModel = model
		}
	}
}

// WithIntentHints appends the detected intent to the system instruction.
// The formatter still classifies the reply on its own.
func WithIntentHints(enabled bool) Option {
	return func(d *Dispatcher) { d.intentHints = enabled }
}

// NewDispatcher creates a dispatcher over provider.
func NewDispatcher(provider llm.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider:     provider,
		formatter:    format.NewFormatter(),
		defaultModel: llm.DefaultModel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultModel returns the model used for requests that name none.
func (d *Dispatcher) DefaultModel() string {
	return d.defaultModel
}

// ResolveModel maps an empty model to the default. Unknown IDs pass through.
func (d *Dispatcher) ResolveModel(modelID string) string {
	if modelID == "" {
		return d.defaultModel
	}
	return modelID
}

// Dispatch runs one turn. The message is not validated. Every error is a
// *RequestFailedError.
func (d *Dispatcher) Dispatch(ctx context.Context, message, modelID string) (decision format.Decision, err error) {
	defer recoverInternal(&decision, &err)

	logger := logging.FromContext(ctx)
	model := d.ResolveModel(modelID)
	if !llm.IsSupportedModel(model) {
		logger.Warn("chat: model not in catalogue, passing through", "model", model)
	}

	intent := format.DetectIntent(message)
	system := SystemInstruction
	if hint := intent.Hint(); d.intentHints && hint != "" {
		system += "\n" + hint
	}

	logger.Debug("chat: dispatching",
		"model", model,
		"code_intent", intent.Code,
		"markdown_intent", intent.Markdown,
		"message", strutil.Preview(filter.Redact(message), 80),
	)

	start := time.Now()
	resp, err := d.provider.Generate(ctx, &llm.GenerateRequest{
		Model:             model,
		Prompt:            message,
		SystemInstruction: system,
	})
	if err != nil {
		d.metrics.RecordLLMError(model, d.provider.Name())
		return format.Decision{}, &RequestFailedError{Kind: KindProvider, Err: err}
	}
	if resp == nil {
		d.metrics.RecordLLMError(model, d.provider.Name())
		return format.Decision{}, &RequestFailedError{Kind: KindProvider, Err: fmt.Errorf("provider %s returned no response", d.provider.Name())}
	}

	var prompt, completion int
	if resp.Stats != nil {
		prompt, completion = resp.Stats.PromptTokens, resp.Stats.CompletionTokens
	}
	d.metrics.RecordLLMCall(model, d.provider.Name(), time.Since(start), prompt, completion)

	return d.formatter.Format(resp.Text, intent), nil
}

// recoverInternal turns a panic anywhere in the pipeline into a KindInternal failure.
// It must be deferred directly.
func recoverInternal(decision *format.Decision, err *error) {
	if r := recover(); r != nil {
		*decision = format.Decision{}
		*err = &RequestFailedError{Kind: KindInternal, Err: fmt.Errorf("pipeline panicked: %v", r)}
	}
}

// SendMessage is the fail-closed entry point: it never returns an error. Any
// failure is logged and replaced by Fallback().
func SendMessage(ctx context.Context, sender Sender, message, modelID string) format.Decision {
	decision, _ := SendMessageResult(ctx, sender, message, modelID)
	return decision
}

// SendMessageResult runs one turn and always returns a displayable decision:
// on failure that is Fallback(), and the error says why. Panics raised by the
// sender are recovered as KindInternal.
func SendMessageResult(ctx context.Context, sender Sender, message, modelID string) (decision format.Decision, err error) {
	decision, err = dispatchGuarded(ctx, sender, message, modelID)
	if err != nil {
		logging.FromContext(ctx).Error("Error processing message", "error", err, "kind", KindOf(err), "model", modelID)
		return Fallback(), err
	}
	return decision, nil
}

func dispatchGuarded(ctx context.Context, sender Sender, message, modelID string) (decision format.Decision, err error) {
	defer recoverInternal(&decision, &err)
	return sender.Dispatch(ctx, message, modelID)
}
