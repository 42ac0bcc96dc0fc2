package llm

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/ollama/ollama/api"
)

type LLMClient interface {
	// GenerateInference streams plain-text completion chunks.
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	// GenerateInferenceWithTools supports native tool calling. Content
	// deltas are forwarded as they arrive; tool calls are accumulated
	// across stream fragments and delivered once the stream ends.
	GenerateInferenceWithTools(
		ctx context.Context,
		messages []Message,
		contentCallback func(chunk string) error,
		toolCallback func(toolCalls []api.ToolCall) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type LLMSettings struct {
	model       string     // model name
	temperature float64    // randomness (0.0 to 1.0)
	maxTokens   int        // maximum tokens to generate
	system      string     // system prompt
	tools       []api.Tool // tools to use for tool calling
}

type LLMOption func(*LLMSettings)

// ResolveSettings applies options over defaults. Clients use it to
// build their request; tests use it to inspect what a caller asked
// for.
func ResolveSettings(defaults LLMSettings, opts ...LLMOption) LLMSettings {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// HasTools reports whether tool definitions were attached.
func (s LLMSettings) HasTools() bool { return len(s.tools) > 0 }

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithTools(tools []api.Tool) LLMOption {
	return func(s *LLMSettings) { s.tools = tools }
}

// Message is a single entry of a conversation context. Assistant
// messages may carry tool calls; tool-result messages reference the
// call they answer via ToolCallID.
type Message struct {
	Role       string         `json:"role"` // "user", "assistant", "system", "tool"
	Content    string         `json:"content"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// WireToolCall is the chat-completions wire form of a tool call, with
// arguments as a raw JSON string.
type WireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function WireToolFunction `json:"function"`
}

type WireToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewWireToolCalls converts resolved tool calls back to wire form so
// they can be replayed as assistant-message context on later
// iterations. IDs are synthesized from the call index; the paired
// tool-result message must use WireToolCallID with the same index.
func NewWireToolCalls(calls []api.ToolCall) []WireToolCall {
	wire := make([]WireToolCall, len(calls))
	for i, call := range calls {
		args, err := json.Marshal(call.Function.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		wire[i] = WireToolCall{
			ID:   WireToolCallID(i),
			Type: "function",
			Function: WireToolFunction{
				Name:      call.Function.Name,
				Arguments: string(args),
			},
		}
	}
	return wire
}

// WireToolCallID returns the synthesized id for the i-th tool call of
// an assistant message.
func WireToolCallID(i int) string {
	return "call_" + strconv.Itoa(i)
}
