package agent

// Event is a progress update streamed while a turn executes. The
// transport layer forwards events to every participant of the
// session's channel.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ProgressReporter receives progress events during a turn.
type ProgressReporter interface {
	// Send sends a progress update. Errors are advisory; a failed send
	// must not abort the turn.
	Send(event Event) error
}

// NoOpProgressReporter implements ProgressReporter with no-op
// operations.
type NoOpProgressReporter struct{}

// Send does nothing.
func (r *NoOpProgressReporter) Send(Event) error {
	return nil
}

// StreamChunkPayload is the payload of an agent_stream event.
type StreamChunkPayload struct {
	Chunk string `json:"chunk"`
}

// ErrorPayload is the payload of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

func NewTypingEvent(typing bool) Event {
	return Event{Type: "agent_typing", Payload: typing}
}

func NewStreamChunk(chunk string) Event {
	return Event{Type: "agent_stream", Payload: StreamChunkPayload{Chunk: chunk}}
}

func NewErrorEvent(message string) Event {
	return Event{Type: "error", Payload: ErrorPayload{Message: message}}
}
