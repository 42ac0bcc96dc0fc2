package db

import "github.com/google/uuid"

// TranscriptLine is one durable line of an interview conversation.
type TranscriptLine struct {
	Role      string `bson:"role"`
	Content   string `bson:"content"`
	Timestamp int64  `bson:"timestamp"`
}

// TranscriptModel holds the append-only transcript of one interview
// session. One document per session, keyed by the session id.
type TranscriptModel struct {
	ID     string           `bson:"_id"`
	CaseID int64            `bson:"caseId"`
	Lines  []TranscriptLine `bson:"lines"`
}

func (m TranscriptModel) Id() string {
	return m.ID
}

func (m TranscriptModel) CollectionName() string {
	return "transcripts"
}

// DocumentModel is the durable record of a structured document.
type DocumentModel struct {
	ID           string            `bson:"_id"`
	CaseID       int64             `bson:"caseId"`
	Kind         string            `bson:"kind"`
	Sections     map[string]string `bson:"sections"`
	Completeness int               `bson:"completeness"`
	IsComplete   bool              `bson:"isComplete"`
	Summary      string            `bson:"summary,omitempty"`
	UpdatedOn    int64             `bson:"updatedOn"`
}

func (m DocumentModel) Id() string {
	return m.ID
}

func (m DocumentModel) CollectionName() string {
	return "documents"
}

// AudioArtifactModel stores a full-session recording as a single
// binary artifact.
type AudioArtifactModel struct {
	ID        string `bson:"_id"`
	SessionID string `bson:"sessionId"`
	Data      []byte `bson:"data"`
	CreatedOn int64  `bson:"createdOn"`
}

func NewAudioArtifactModel(sessionID string, data []byte, createdOn int64) *AudioArtifactModel {
	return &AudioArtifactModel{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Data:      data,
		CreatedOn: createdOn,
	}
}

func (m AudioArtifactModel) Id() string {
	if len(m.ID) == 0 {
		return uuid.New().String()
	}
	return m.ID
}

func (m AudioArtifactModel) CollectionName() string {
	return "audio_artifacts"
}

// ToolEventModel is one audit entry for a successful tool-call
// mutation, tagged with turn-level metadata.
type ToolEventModel struct {
	ID        string `bson:"_id"`
	SessionID string `bson:"sessionId"`
	Turn      int    `bson:"turn"`
	Tool      string `bson:"tool"`
	Section   string `bson:"section,omitempty"`
	CreatedOn int64  `bson:"createdOn"`
}

func (m ToolEventModel) Id() string {
	if len(m.ID) == 0 {
		return uuid.New().String()
	}
	return m.ID
}

func (m ToolEventModel) CollectionName() string {
	return "tool_events"
}
