package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/caseway/agent-core/db"
	"github.com/caseway/agent-core/document"
	"github.com/caseway/agent-core/llm"
	"github.com/caseway/agent-core/registry"
	"github.com/ollama/ollama/api"
)

// scriptedResponse is one model invocation's output: streamed content
// chunks and/or tool calls.
type scriptedResponse struct {
	chunks    []string
	toolCalls []api.ToolCall
	err       error
}

// mock llm client replaying scripted responses per invocation.
type mockLLMClient struct {
	responses []scriptedResponse
	callCount int
	seenMsgs  [][]llm.Message
}

func (m *mockLLMClient) GetModel() string { return "mock-model" }

func (m *mockLLMClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(string) error, opts ...llm.LLMOption) error {
	return m.GenerateInferenceWithTools(ctx, messages, callback, nil, opts...)
}

func (m *mockLLMClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []llm.Message,
	contentCallback func(string) error,
	toolCallback func([]api.ToolCall) error,
	opts ...llm.LLMOption,
) error {
	m.seenMsgs = append(m.seenMsgs, messages)

	if m.callCount >= len(m.responses) {
		return contentCallback("default answer")
	}
	response := m.responses[m.callCount]
	m.callCount++

	if response.err != nil {
		return response.err
	}
	for _, chunk := range response.chunks {
		if err := contentCallback(chunk); err != nil {
			return err
		}
	}
	if len(response.toolCalls) > 0 && toolCallback != nil {
		return toolCallback(response.toolCalls)
	}
	return nil
}

// collectingReporter records every event it receives.
type collectingReporter struct {
	events []Event
}

func (r *collectingReporter) Send(event Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *collectingReporter) ofType(eventType string) []Event {
	var matched []Event
	for _, e := range r.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func updateCall(section, content string) api.ToolCall {
	return api.ToolCall{
		Function: api.ToolCallFunction{
			Name: ToolUpdateDocument,
			Arguments: api.ToolCallFunctionArguments{
				"section": section,
				"content": content,
			},
		},
	}
}

func newIntakeSession() *registry.Session {
	return &registry.Session{
		ID:       "intake-test",
		Kind:     registry.KindIntake,
		Document: document.New(document.KindIntake),
	}
}

func newTestAgent(client llm.LLMClient, sink db.ToolEventSink) *Agent {
	return NewAgentBuilder().
		WithClient(client).
		WithToolEventSink(sink).
		WithMaxTokens(1024).
		Build()
}

func TestExecuteTurn_PlainAnswerAppendsTwoEntries(t *testing.T) {
	client := &mockLLMClient{responses: []scriptedResponse{
		{chunks: []string{"Hello, ", "how can I help?"}},
	}}
	session := newIntakeSession()
	reporter := &collectingReporter{}

	result, err := newTestAgent(client, nil).ExecuteTurn(context.Background(), reporter, session, "hi")
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if result.Reply != "Hello, how can I help?" {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
	if len(session.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(session.History))
	}
	if session.History[0].Role != "user" || session.History[1].Role != "assistant" {
		t.Errorf("unexpected history roles: %s, %s", session.History[0].Role, session.History[1].Role)
	}
	if result.DocumentChanged {
		t.Error("document must be unchanged on a zero-tool-call turn")
	}
	if len(reporter.ofType("agent_stream")) != 2 {
		t.Errorf("expected 2 stream chunks, got %d", len(reporter.ofType("agent_stream")))
	}
}

func TestExecuteTurn_ToolCallsThenAnswer(t *testing.T) {
	client := &mockLLMClient{responses: []scriptedResponse{
		{toolCalls: []api.ToolCall{
			updateCall("painPoints", "reports take 3 days"),
			updateCall("desiredOutcome", "same-day reporting"),
		}},
		{chunks: []string{"Got it, noted."}},
	}}
	session := newIntakeSession()
	sink := db.NewMemoryStores()

	result, err := newTestAgent(client, sink).ExecuteTurn(context.Background(), &collectingReporter{}, session, "our reports are slow")
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if !result.DocumentChanged {
		t.Error("expected document change")
	}
	if result.Completeness != 50 {
		t.Errorf("expected 50%% completeness, got %d", result.Completeness)
	}

	// History: user, assistant+tool_calls, 2 tool results, final assistant.
	if len(session.History) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(session.History))
	}
	if len(session.History[1].ToolCalls) != 2 {
		t.Errorf("assistant message should carry 2 tool calls, got %d", len(session.History[1].ToolCalls))
	}
	for i, idx := range []int{2, 3} {
		msg := session.History[idx]
		if msg.Role != "tool" {
			t.Errorf("history[%d] should be a tool result, got role %s", idx, msg.Role)
		}
		if msg.ToolCallID != llm.WireToolCallID(i) {
			t.Errorf("tool results must keep declaration order: got id %s at position %d", msg.ToolCallID, i)
		}
	}

	// The second invocation sees the tool results as context.
	second := client.seenMsgs[1]
	if second[len(second)-1].Role != "tool" {
		t.Error("model re-invocation must see tool-result messages")
	}

	if len(sink.ToolEvents) != 2 {
		t.Errorf("expected 2 audit events, got %d", len(sink.ToolEvents))
	}
}

func TestExecuteTurn_FallbackOnExhaustionKeepsMutations(t *testing.T) {
	// Model keeps calling tools on every invocation, including the
	// final one where tools are withheld.
	var responses []scriptedResponse
	for i := 0; i < IntakeMaxIterations; i++ {
		responses = append(responses, scriptedResponse{toolCalls: []api.ToolCall{
			updateCall("painPoints", "still talking about pain points"),
		}})
	}
	client := &mockLLMClient{responses: responses}
	session := newIntakeSession()

	result, err := newTestAgent(client, nil).ExecuteTurn(context.Background(), &collectingReporter{}, session, "hello")
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if result.Reply != FallbackReply {
		t.Errorf("expected fallback reply, got %q", result.Reply)
	}
	if client.callCount != IntakeMaxIterations {
		t.Errorf("expected %d model calls, got %d", IntakeMaxIterations, client.callCount)
	}
	if session.Document.Completeness != 25 {
		t.Errorf("document mutations must survive exhaustion, completeness = %d", session.Document.Completeness)
	}
	last := session.History[len(session.History)-1]
	if last.Content != FallbackReply {
		t.Error("fallback reply must be committed to history")
	}
}

func TestExecuteTurn_BackendErrorLeavesHistoryUntouched(t *testing.T) {
	client := &mockLLMClient{responses: []scriptedResponse{
		{err: errors.New("connection reset")},
	}}
	session := newIntakeSession()
	reporter := &collectingReporter{}

	_, err := newTestAgent(client, nil).ExecuteTurn(context.Background(), reporter, session, "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	if len(session.History) != 0 {
		t.Errorf("history must stay untouched on backend failure, got %d entries", len(session.History))
	}
	if session.TurnCount != 0 {
		t.Errorf("failed turn must not burn quota, turn count = %d", session.TurnCount)
	}
	if len(reporter.ofType("error")) != 1 {
		t.Error("expected one error event")
	}
}

func TestExecuteTurn_FinalIterationOmitsTools(t *testing.T) {
	var toolOptsSeen []bool
	client := &optionInspectingClient{onCall: func(settingsHaveTools bool) {
		toolOptsSeen = append(toolOptsSeen, settingsHaveTools)
	}}
	session := newIntakeSession()

	_, err := newTestAgent(client, nil).ExecuteTurn(context.Background(), &collectingReporter{}, session, "hi")
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if len(toolOptsSeen) != IntakeMaxIterations {
		t.Fatalf("expected %d invocations, got %d", IntakeMaxIterations, len(toolOptsSeen))
	}
	for i, hasTools := range toolOptsSeen[:len(toolOptsSeen)-1] {
		if !hasTools {
			t.Errorf("iteration %d should offer tools", i)
		}
	}
	if toolOptsSeen[len(toolOptsSeen)-1] {
		t.Error("final iteration must omit tools")
	}
}

func TestExecuteTurn_MarkCompleteEmitsSummary(t *testing.T) {
	client := &mockLLMClient{responses: []scriptedResponse{
		{toolCalls: []api.ToolCall{{
			Function: api.ToolCallFunction{
				Name: ToolMarkComplete,
				Arguments: api.ToolCallFunctionArguments{
					"summary":       "monthly reporting is too slow",
					"key_decisions": []any{"wants automation"},
				},
			},
		}}},
		{chunks: []string{"Thanks, a consultant will reach out."}},
	}}
	session := newIntakeSession()

	result, err := newTestAgent(client, nil).ExecuteTurn(context.Background(), &collectingReporter{}, session, "that's everything")
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if result.Summary == nil {
		t.Fatal("expected a summary payload")
	}
	if result.Summary.Summary != "monthly reporting is too slow" {
		t.Errorf("unexpected summary: %q", result.Summary.Summary)
	}
	if len(result.Summary.KeyDecisions) != 1 || result.Summary.KeyDecisions[0] != "wants automation" {
		t.Errorf("unexpected key decisions: %v", result.Summary.KeyDecisions)
	}
	if !session.Document.IsComplete {
		t.Error("document must be marked complete")
	}
}

// optionInspectingClient always answers with a tool call and reports
// whether tools were attached to the invocation.
type optionInspectingClient struct {
	onCall func(settingsHaveTools bool)
}

func (c *optionInspectingClient) GetModel() string { return "inspecting-model" }

func (c *optionInspectingClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(string) error, opts ...llm.LLMOption) error {
	return c.GenerateInferenceWithTools(ctx, messages, callback, nil, opts...)
}

func (c *optionInspectingClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []llm.Message,
	contentCallback func(string) error,
	toolCallback func([]api.ToolCall) error,
	opts ...llm.LLMOption,
) error {
	c.onCall(llm.ResolveSettings(llm.LLMSettings{}, opts...).HasTools())

	if toolCallback != nil {
		return toolCallback([]api.ToolCall{updateCall("painPoints", "x")})
	}
	return contentCallback("answer")
}
