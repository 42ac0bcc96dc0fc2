package llm

import (
	"github.com/goccy/go-json"
	"github.com/ollama/ollama/api"
)

// toolCallPart holds the partial state of one streamed tool call. Name
// and argument JSON arrive incrementally, keyed by the stream index,
// and may interleave with content deltas.
type toolCallPart struct {
	name string
	args []byte
}

// ToolCallAccumulator assembles tool calls from stream fragments. Each
// fragment carries an integer index identifying which call it extends;
// fragments for the same index are concatenated in arrival order. The
// accumulator grows sparsely: an index beyond the current length
// allocates the gap.
type ToolCallAccumulator struct {
	parts []*toolCallPart
}

func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{}
}

// Add appends a fragment for the call at the given stream index.
// Negative indices are ignored.
func (a *ToolCallAccumulator) Add(index int, name, argsFragment string) {
	if index < 0 {
		return
	}
	for len(a.parts) <= index {
		a.parts = append(a.parts, &toolCallPart{})
	}

	part := a.parts[index]
	part.name += name
	part.args = append(part.args, argsFragment...)
}

// HasCalls reports whether any call with a non-empty name has been
// observed so far.
func (a *ToolCallAccumulator) HasCalls() bool {
	for _, part := range a.parts {
		if part != nil && part.name != "" {
			return true
		}
	}
	return false
}

// Finalize resolves the accumulated fragments into complete tool calls
// in index order. Entries with an empty name are dropped. Malformed
// argument JSON degrades to an empty argument map rather than failing
// the turn.
func (a *ToolCallAccumulator) Finalize() []api.ToolCall {
	calls := make([]api.ToolCall, 0, len(a.parts))
	for _, part := range a.parts {
		if part == nil || part.name == "" {
			continue
		}

		args := api.ToolCallFunctionArguments{}
		if len(part.args) > 0 {
			if err := json.Unmarshal(part.args, &args); err != nil {
				args = api.ToolCallFunctionArguments{}
			}
		}

		calls = append(calls, api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      part.name,
				Arguments: args,
			},
		})
	}
	return calls
}
