package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/caseway/agent-core/llm"
	"github.com/caseway/agent-core/prompts"
	"github.com/caseway/agent-core/registry"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// TurnResult is the committed outcome of one user turn.
type TurnResult struct {
	Reply           string
	DocumentChanged bool
	Completeness    int
	Summary         *Summary
	ToolsUsed       int
}

// ExecuteTurn runs one user message through the bounded tool-calling
// loop. The caller must hold the session's turn lock.
//
// History is committed only when the turn produces a reply; a backend
// failure leaves it untouched so the user can retry the same message.
// Document mutations applied by earlier iterations are kept either
// way.
func (a *Agent) ExecuteTurn(ctx context.Context, reporter ProgressReporter, session *registry.Session, userText string) (*TurnResult, error) {
	session.TurnCount++
	turn := session.TurnCount

	systemPrompt, err := prompts.RenderSystemPrompt(session.Kind.DocumentKind(),
		prompts.NewSystemPromptData(session.Document, session.CaseContext))
	if err != nil {
		reporter.Send(NewErrorEvent("failed to prepare the conversation"))
		return nil, fmt.Errorf("error rendering system prompt: %w", err)
	}

	// Messages added by this turn; committed to session history only
	// on success.
	pending := []llm.Message{{Role: "user", Content: userText}}
	result := &TurnResult{}

	maxIterations := maxIterationsFor(session.Kind)
	reporter.Send(NewTypingEvent(true))
	defer reporter.Send(NewTypingEvent(false))

	for iteration := 0; iteration < maxIterations; iteration++ {
		msgs := make([]llm.Message, 0, len(session.History)+len(pending))
		msgs = append(msgs, session.History...)
		msgs = append(msgs, pending...)

		opts := []llm.LLMOption{
			llm.WithSystemPrompt(systemPrompt),
			llm.WithMaxTokens(a.config.MaxTokens),
		}
		// The final iteration omits tools so the model is forced to
		// answer in plain text.
		if iteration < maxIterations-1 {
			opts = append(opts, llm.WithTools(toolsFor(session.Kind)))
		}

		var content strings.Builder
		var toolCalls []api.ToolCall

		err := a.config.Client.GenerateInferenceWithTools(ctx, msgs,
			func(chunk string) error {
				content.WriteString(chunk)
				reporter.Send(NewStreamChunk(chunk))
				return nil
			},
			func(calls []api.ToolCall) error {
				toolCalls = append(toolCalls, calls...)
				return nil
			},
			opts...,
		)
		if err != nil {
			logger.Error("Model call failed",
				zap.String("sessionId", session.ID),
				zap.Int("turn", turn),
				zap.Int("iteration", iteration),
				zap.Error(err))
			reporter.Send(NewErrorEvent("the assistant is unavailable right now, please try again"))
			// The message was not consumed; retrying it must not burn
			// quota.
			session.TurnCount--
			return nil, err
		}

		effective := filterNamed(toolCalls)
		if len(effective) == 0 {
			result.Reply = content.String()
			a.commit(session, pending, result.Reply)
			return result, nil
		}

		pending = append(pending, llm.Message{
			Role:      "assistant",
			Content:   content.String(),
			ToolCalls: llm.NewWireToolCalls(effective),
		})

		// Execute every call in index order; one call failing is
		// reported to the model but does not abort its siblings.
		for i, call := range effective {
			dispatched := a.config.Dispatcher.Dispatch(ctx, session.Document, session.ID, turn, call)
			result.ToolsUsed++
			if dispatched.DocumentChanged {
				result.DocumentChanged = true
				result.Completeness = dispatched.Completeness
			}
			if dispatched.Summary != nil {
				result.Summary = dispatched.Summary
			}

			pending = append(pending, llm.Message{
				Role:       "tool",
				Content:    dispatched.Message,
				ToolCallID: llm.WireToolCallID(i),
			})
		}
	}

	// Budget exhausted without a plain-text answer. Return the fixed
	// fallback and still persist whatever the turn committed so far.
	logger.Error("Turn exhausted iteration budget",
		zap.String("sessionId", session.ID),
		zap.Int("turn", turn),
		zap.Int("maxIterations", maxIterations))

	result.Reply = FallbackReply
	a.commit(session, pending, result.Reply)
	return result, nil
}

func (a *Agent) commit(session *registry.Session, pending []llm.Message, reply string) {
	session.History = append(session.History, pending...)
	session.History = append(session.History, llm.Message{Role: "assistant", Content: reply})
}
