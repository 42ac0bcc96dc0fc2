package db

import (
	"context"
	"sync"
	"time"

	"github.com/caseway/agent-core/document"
	"github.com/google/uuid"
)

// MemoryStores is an in-memory implementation of the persistence
// collaborators, used in tests and when running without Mongo.
type MemoryStores struct {
	mu          sync.Mutex
	Transcripts map[string][]TranscriptLine
	Documents   map[string]DocumentModel
	Recordings  map[string][]byte
	ToolEvents  []ToolEventModel
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		Transcripts: make(map[string][]TranscriptLine),
		Documents:   make(map[string]DocumentModel),
		Recordings:  make(map[string][]byte),
	}
}

func (s *MemoryStores) AppendLine(_ context.Context, sessionID string, _ int64, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transcripts[sessionID] = append(s.Transcripts[sessionID], TranscriptLine{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
	return nil
}

func (s *MemoryStores) Load(_ context.Context, sessionID string) ([]TranscriptLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]TranscriptLine, len(s.Transcripts[sessionID]))
	copy(lines, s.Transcripts[sessionID])
	return lines, nil
}

func (s *MemoryStores) Save(_ context.Context, sessionID string, caseID int64, doc *document.Document) error {
	sections := make(map[string]string, len(doc.Sections))
	for key, content := range doc.Sections {
		sections[string(key)] = content
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Documents[sessionID] = DocumentModel{
		ID:           sessionID,
		CaseID:       caseID,
		Kind:         string(doc.Kind),
		Sections:     sections,
		Completeness: doc.Completeness,
		IsComplete:   doc.IsComplete,
		Summary:      doc.Summary,
		UpdatedOn:    time.Now().UnixMilli(),
	}
	return nil
}

func (s *MemoryStores) SaveRecording(_ context.Context, sessionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Recordings[sessionID] = data
	return nil
}

func (s *MemoryStores) Record(_ context.Context, event ToolEventModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedOn = time.Now().UnixMilli()
	s.ToolEvents = append(s.ToolEvents, event)
}
