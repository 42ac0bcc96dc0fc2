package transport

import (
	"time"

	"github.com/caseway/agent-core/agent"
	"github.com/goccy/go-json"
)

// Envelope frames every text event on the wire: a type tag and a
// type-specific payload. Binary frames are audio chunks and carry no
// envelope.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EventJoin        = "join"
	EventUserMessage = "user_message"
	EventAudioStop   = "audio_stop"
)

// Outbound event types.
const (
	EventSessionReady            = "session_ready"
	EventMessage                 = "message"
	EventDocumentChanged         = "document_changed"
	EventAgentSummary            = "agent_summary"
	EventTranscriptionProcessing = "transcription_processing"
	EventTranscriptionResult     = "transcription_result"
	EventError                   = "error"
)

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into v; an absent payload
// leaves v zero-valued.
func (e Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

func newEnvelope(eventType string, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are our own types; a marshal failure is a bug.
		return Envelope{Type: EventError, Payload: json.RawMessage(`{"message":"internal error"}`)}
	}
	return Envelope{Type: eventType, Payload: data}
}

// JoinPayload starts or re-attaches to a session. Interview joins name
// the persisted case; intake joins carry no identity and fall under
// per-IP admission control. An intake client reconnecting within the
// TTL passes its previous session id.
type JoinPayload struct {
	Kind        string `json:"kind"` // "interview" or "intake"
	CaseID      int64  `json:"case_id,omitempty"`
	CaseContext string `json:"case_context,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

type UserMessagePayload struct {
	Text string `json:"text"`
}

type SessionReadyPayload struct {
	SessionID              string `json:"session_id"`
	TranscriptionAvailable bool   `json:"transcription_available"`
}

type MessagePayload struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type DocumentChangedPayload struct {
	SessionID    string `json:"session_id"`
	Completeness int    `json:"completeness"`
}

type TranscriptionResultPayload struct {
	Text  *string `json:"text"`
	Error string  `json:"error,omitempty"`
}

func NewSessionReadyEvent(sessionID string, transcription bool) Envelope {
	return newEnvelope(EventSessionReady, SessionReadyPayload{
		SessionID:              sessionID,
		TranscriptionAvailable: transcription,
	})
}

func NewMessageEvent(role, content string) Envelope {
	return newEnvelope(EventMessage, MessagePayload{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
}

func NewDocumentChangedEvent(sessionID string, completeness int) Envelope {
	return newEnvelope(EventDocumentChanged, DocumentChangedPayload{
		SessionID:    sessionID,
		Completeness: completeness,
	})
}

func NewAgentSummaryEvent(summary *agent.Summary) Envelope {
	return newEnvelope(EventAgentSummary, summary)
}

func NewTranscriptionProcessingEvent(processing bool) Envelope {
	return newEnvelope(EventTranscriptionProcessing, processing)
}

func NewTranscriptionResultEvent(text string) Envelope {
	return newEnvelope(EventTranscriptionResult, TranscriptionResultPayload{Text: &text})
}

func NewTranscriptionErrorEvent(message string) Envelope {
	return newEnvelope(EventTranscriptionResult, TranscriptionResultPayload{Error: message})
}

func NewErrorEvent(message string) Envelope {
	return newEnvelope(EventError, agent.ErrorPayload{Message: message})
}

// FromAgentEvent wraps a progress event from the agent loop into a
// wire envelope.
func FromAgentEvent(event agent.Event) Envelope {
	return newEnvelope(event.Type, event.Payload)
}
