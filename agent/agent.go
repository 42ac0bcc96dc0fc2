package agent

import (
	"github.com/caseway/agent-core/db"
	"github.com/caseway/agent-core/llm"
	"github.com/caseway/agent-core/registry"
	"github.com/ollama/ollama/api"
)

const (
	// InterviewMaxIterations bounds the tool-calling loop for
	// authenticated interview turns.
	InterviewMaxIterations = 5

	// IntakeMaxIterations bounds the loop for anonymous intake turns.
	IntakeMaxIterations = 3

	// FallbackReply is returned when the iteration budget is exhausted
	// without a plain-text answer.
	FallbackReply = "I wasn't able to finish processing that. Could you rephrase or try again?"
)

// AgentConfig holds configuration for the agent.
type AgentConfig struct {
	Client     llm.LLMClient
	Dispatcher *Dispatcher
	MaxTokens  int
}

// Agent drives the bounded-iteration tool-calling loop over the
// language-model backend. One agent serves all sessions; per-session
// state lives on the session itself.
type Agent struct {
	config AgentConfig
}

// NewAgent creates a new agent instance.
func NewAgent(config AgentConfig) *Agent {
	if config.Dispatcher == nil {
		config.Dispatcher = NewDispatcher(nil)
	}
	return &Agent{config: config}
}

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{}
}

func (b *AgentBuilder) WithClient(client llm.LLMClient) *AgentBuilder {
	b.config.Client = client
	return b
}

func (b *AgentBuilder) WithToolEventSink(sink db.ToolEventSink) *AgentBuilder {
	b.config.Dispatcher = NewDispatcher(sink)
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) Build() *Agent {
	return NewAgent(b.config)
}

func maxIterationsFor(kind registry.Kind) int {
	if kind == registry.KindIntake {
		return IntakeMaxIterations
	}
	return InterviewMaxIterations
}

// filterNamed drops tool-call entries with an empty name. A stream
// that produced only such entries counts as no tool calls at all.
func filterNamed(calls []api.ToolCall) []api.ToolCall {
	named := calls[:0:0]
	for _, call := range calls {
		if call.Function.Name != "" {
			named = append(named, call)
		}
	}
	return named
}
