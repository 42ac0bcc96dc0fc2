package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/caseway/agent-core/agent"
	"github.com/caseway/agent-core/audio"
	"github.com/caseway/agent-core/db"
	"github.com/caseway/agent-core/llm"
	"github.com/caseway/agent-core/registry"
	"go.uber.org/zap"
)

// Bridge maps transport events onto agent-loop invocations and
// broadcasts results to every participant of a session's channel.
type Bridge struct {
	registry    *registry.Registry
	agent       *agent.Agent
	hub         *Hub
	transcriber audio.Transcriber
	language    string

	transcripts db.TranscriptStore
	documents   db.DocumentStore
	artifacts   db.ArtifactStore
}

type BridgeConfig struct {
	Registry    *registry.Registry
	Agent       *agent.Agent
	Hub         *Hub
	Transcriber audio.Transcriber // nil disables transcription
	Language    string            // transcription language hint

	Transcripts db.TranscriptStore
	Documents   db.DocumentStore
	Artifacts   db.ArtifactStore
}

func NewBridge(config BridgeConfig) *Bridge {
	return &Bridge{
		registry:    config.Registry,
		agent:       config.Agent,
		hub:         config.Hub,
		transcriber: config.Transcriber,
		language:    config.Language,
		transcripts: config.Transcripts,
		documents:   config.Documents,
		artifacts:   config.Artifacts,
	}
}

// HandleJoin resolves or creates the session, subscribes the client to
// its channel, and replies with the session identity and capability
// flags.
func (b *Bridge) HandleJoin(ctx context.Context, client *Client, payload JoinPayload, remoteIP string) (*registry.Session, error) {
	session, err := b.resolveSession(ctx, payload, remoteIP)
	if err != nil {
		b.hub.SendTo(client, NewErrorEvent(err.Error()))
		return nil, err
	}

	b.hub.Subscribe(session.ID, client)
	b.hub.SendTo(client, NewSessionReadyEvent(session.ID, b.transcriber != nil))
	return session, nil
}

func (b *Bridge) resolveSession(ctx context.Context, payload JoinPayload, remoteIP string) (*registry.Session, error) {
	switch payload.Kind {
	case string(registry.KindInterview):
		if payload.CaseID <= 0 {
			return nil, errors.New("join requires a case id for interview sessions")
		}

		id := registry.InterviewSessionID(payload.CaseID)
		if existing, ok := b.registry.Get(id); ok {
			return existing, nil
		}

		session := b.registry.CreateInterview(payload.CaseID, payload.CaseContext)
		b.rehydrateHistory(ctx, session)
		return session, nil

	case string(registry.KindIntake):
		if payload.SessionID != "" {
			// Only intake sessions are reclaimable by id; interview ids
			// are derivable and must not be reachable anonymously.
			if existing, ok := b.registry.Get(payload.SessionID); ok && existing.Kind == registry.KindIntake {
				return existing, nil
			}
			// Expired or swept; fall through to admission-checked
			// creation.
		}
		return b.registry.CreateIntake(remoteIP)

	default:
		return nil, fmt.Errorf("unknown session kind %q", payload.Kind)
	}
}

// rehydrateHistory reloads an interview session's conversation from
// the durable transcript so a process restart does not blank the
// context mid-engagement.
func (b *Bridge) rehydrateHistory(ctx context.Context, session *registry.Session) {
	if b.transcripts == nil {
		return
	}

	lines, err := b.transcripts.Load(ctx, session.ID)
	if err != nil {
		logger.Error("Failed to rehydrate transcript", zap.String("sessionId", session.ID), zap.Error(err))
		return
	}
	for _, line := range lines {
		session.History = append(session.History, llm.Message{Role: line.Role, Content: line.Content})
	}
}

// HandleUserMessage drives one agent turn and broadcasts the results.
// Turns for a session are serialized on the session's turn lock; a
// message arriving mid-turn queues behind it.
func (b *Bridge) HandleUserMessage(ctx context.Context, session *registry.Session, text string) {
	if text == "" {
		return
	}
	b.registry.Touch(session.ID)

	session.LockTurn()
	defer session.UnlockTurn()

	// TurnCount is session state; reading it requires the turn lock.
	if session.Kind == registry.KindIntake && session.TurnCount >= registry.IntakeTurnQuota {
		b.hub.Broadcast(session.ID, NewErrorEvent(registry.ErrTurnQuotaExceeded.Error()))
		return
	}

	b.hub.Broadcast(session.ID, NewMessageEvent("user", text))

	reporter := &hubReporter{hub: b.hub, sessionID: session.ID}
	result, err := b.agent.ExecuteTurn(ctx, reporter, session, text)
	if err != nil {
		// The loop already emitted the user-facing error event.
		return
	}

	// Document state first, then the assistant's follow-up, so clients
	// render the updated document before the prose referring to it.
	if result.DocumentChanged {
		b.hub.Broadcast(session.ID, NewDocumentChangedEvent(session.ID, result.Completeness))
	}
	if result.Summary != nil {
		b.hub.Broadcast(session.ID, NewAgentSummaryEvent(result.Summary))
	}
	b.hub.Broadcast(session.ID, NewMessageEvent("assistant", result.Reply))

	b.persistTurn(ctx, session, text, result)
}

// persistTurn writes the transcript lines and document record for
// interview sessions. Failures degrade to logs; the conversation keeps
// going.
func (b *Bridge) persistTurn(ctx context.Context, session *registry.Session, userText string, result *agent.TurnResult) {
	if session.Kind != registry.KindInterview {
		return
	}

	if b.transcripts != nil {
		if err := b.transcripts.AppendLine(ctx, session.ID, session.CaseID, "user", userText); err == nil {
			_ = b.transcripts.AppendLine(ctx, session.ID, session.CaseID, "assistant", result.Reply)
		}
	}
	if b.documents != nil && result.DocumentChanged {
		_ = b.documents.Save(ctx, session.ID, session.CaseID, session.Document)
	}
}

// HandleAudioChunk appends a binary chunk to the session's buffers.
func (b *Bridge) HandleAudioChunk(session *registry.Session, chunk []byte) {
	b.registry.Touch(session.ID)
	session.Audio.AppendChunk(chunk)
}

// HandleAudioStop hands the pending buffer to transcription and
// broadcasts the outcome. The pending buffer is cleared regardless.
func (b *Bridge) HandleAudioStop(ctx context.Context, session *registry.Session) {
	b.registry.Touch(session.ID)
	pending := session.Audio.TakePending()
	if len(pending) == 0 {
		return
	}

	if b.transcriber == nil {
		b.hub.Broadcast(session.ID, NewTranscriptionErrorEvent("transcription is not available"))
		return
	}

	b.hub.Broadcast(session.ID, NewTranscriptionProcessingEvent(true))
	defer b.hub.Broadcast(session.ID, NewTranscriptionProcessingEvent(false))

	text, err := b.transcriber.Transcribe(ctx, pending, b.language)
	if err != nil {
		logger.Error("Transcription failed",
			zap.String("sessionId", session.ID),
			zap.Int("bytes", len(pending)),
			zap.Error(err))
		b.hub.Broadcast(session.ID, NewTranscriptionErrorEvent("transcription failed"))
		return
	}

	b.hub.Broadcast(session.ID, NewTranscriptionResultEvent(text))
}

// HandleDisconnect removes the client from the session's channel and,
// once the last participant is gone, flushes the archive buffer and
// discards the in-memory session. Flush failures are logged and
// swallowed; there is no one left to tell.
func (b *Bridge) HandleDisconnect(ctx context.Context, client *Client, session *registry.Session) {
	if session == nil {
		return
	}

	remaining := b.hub.Unsubscribe(session.ID, client)
	if remaining > 0 {
		return
	}

	if session.Kind == registry.KindInterview {
		if archive := session.Audio.TakeArchive(); len(archive) > 0 && b.artifacts != nil {
			if err := b.artifacts.SaveRecording(ctx, session.ID, archive); err != nil {
				logger.Error("Failed to save session recording",
					zap.String("sessionId", session.ID),
					zap.Int("bytes", len(archive)),
					zap.Error(err))
			}
		}
	}

	b.registry.Delete(session.ID)
}

// hubReporter forwards agent progress events to the session's channel.
type hubReporter struct {
	hub       *Hub
	sessionID string
}

func (r *hubReporter) Send(event agent.Event) error {
	r.hub.Broadcast(r.sessionID, FromAgentEvent(event))
	return nil
}
