package agent

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/caseway/agent-core/db"
	"github.com/caseway/agent-core/document"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Tool names the model may invoke.
const (
	ToolUpdateDocument = "update_document"
	ToolMarkComplete   = "mark_complete"
)

// Summary is the completion payload set by a terminal mark_complete
// call.
type Summary struct {
	Summary       string   `json:"summary"`
	KeyDecisions  []string `json:"key_decisions"`
	OpenQuestions []string `json:"open_questions"`
}

// DispatchResult is the outcome of one tool call. Message is always
// non-empty and is appended back into the model's context as the
// tool-result message; the loop cannot proceed without it.
type DispatchResult struct {
	Message         string
	DocumentChanged bool
	Completeness    int
	Summary         *Summary
}

// Dispatcher maps a named tool invocation onto a document mutation or
// a completion signal. Mutation successes are recorded to the audit
// sink with turn metadata.
type Dispatcher struct {
	sink db.ToolEventSink
}

func NewDispatcher(sink db.ToolEventSink) *Dispatcher {
	return &Dispatcher{sink: sink}
}

// Dispatch executes a single tool call against the session's document.
// Validation failures (unknown tool, unknown section, malformed
// arguments) are returned as tool-result payloads so the model can
// self-correct; they never fail the turn.
func (d *Dispatcher) Dispatch(ctx context.Context, doc *document.Document, sessionID string, turn int, call api.ToolCall) DispatchResult {
	switch call.Function.Name {
	case ToolUpdateDocument:
		return d.updateDocument(ctx, doc, sessionID, turn, decodeUpdateDocumentArgs(call.Function.Arguments))
	case ToolMarkComplete:
		if doc.Kind != document.KindIntake {
			return DispatchResult{Message: fmt.Sprintf("error: tool %q is not available in this session", ToolMarkComplete)}
		}
		return d.markComplete(ctx, doc, sessionID, turn, decodeMarkCompleteArgs(call.Function.Arguments))
	default:
		return DispatchResult{Message: fmt.Sprintf("error: unknown tool %q", call.Function.Name)}
	}
}

func (d *Dispatcher) updateDocument(ctx context.Context, doc *document.Document, sessionID string, turn int, args updateDocumentArgs) DispatchResult {
	if args.Section == "" {
		return DispatchResult{Message: "error: update_document requires a \"section\" argument"}
	}

	completeness, err := doc.ApplySectionUpdate(document.SectionKey(args.Section), args.Content)
	if err != nil {
		return DispatchResult{Message: fmt.Sprintf("error: %v", err)}
	}

	d.record(ctx, db.ToolEventModel{
		SessionID: sessionID,
		Turn:      turn,
		Tool:      ToolUpdateDocument,
		Section:   args.Section,
	})

	return DispatchResult{
		Message:         fmt.Sprintf("section %q updated; document is now %d%% complete", args.Section, completeness),
		DocumentChanged: true,
		Completeness:    completeness,
	}
}

func (d *Dispatcher) markComplete(ctx context.Context, doc *document.Document, sessionID string, turn int, args markCompleteArgs) DispatchResult {
	doc.MarkComplete(args.Summary)

	d.record(ctx, db.ToolEventModel{
		SessionID: sessionID,
		Turn:      turn,
		Tool:      ToolMarkComplete,
	})

	return DispatchResult{
		Message:         "intake marked complete",
		DocumentChanged: true,
		Completeness:    doc.Completeness,
		Summary: &Summary{
			Summary:       args.Summary,
			KeyDecisions:  args.KeyDecisions,
			OpenQuestions: args.OpenQuestions,
		},
	}
}

func (d *Dispatcher) record(ctx context.Context, event db.ToolEventModel) {
	if d.sink == nil {
		return
	}
	d.sink.Record(ctx, event)
	logger.Info("Tool call applied",
		zap.String("sessionId", event.SessionID),
		zap.Int("turn", event.Turn),
		zap.String("tool", event.Tool),
		zap.String("section", event.Section))
}

// Argument payloads are decoded defensively: missing or wrong-typed
// fields default instead of failing the call.

type updateDocumentArgs struct {
	Section string
	Content string
}

type markCompleteArgs struct {
	Summary       string
	KeyDecisions  []string
	OpenQuestions []string
}

func decodeUpdateDocumentArgs(args api.ToolCallFunctionArguments) updateDocumentArgs {
	return updateDocumentArgs{
		Section: stringArg(args, "section"),
		Content: stringArg(args, "content"),
	}
}

func decodeMarkCompleteArgs(args api.ToolCallFunctionArguments) markCompleteArgs {
	return markCompleteArgs{
		Summary:       stringArg(args, "summary"),
		KeyDecisions:  stringSliceArg(args, "key_decisions"),
		OpenQuestions: stringSliceArg(args, "open_questions"),
	}
}

func stringArg(args api.ToolCallFunctionArguments, key string) string {
	value, _ := args[key].(string)
	return value
}

func stringSliceArg(args api.ToolCallFunctionArguments, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
