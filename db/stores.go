package db

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/caseway/agent-core/document"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// TranscriptStore appends and reloads durable interview transcripts.
type TranscriptStore interface {
	AppendLine(ctx context.Context, sessionID string, caseID int64, role, content string) error
	Load(ctx context.Context, sessionID string) ([]TranscriptLine, error)
}

// DocumentStore writes the durable structured-document record.
type DocumentStore interface {
	Save(ctx context.Context, sessionID string, caseID int64, doc *document.Document) error
}

// ArtifactStore persists binary artifacts such as full-session
// recordings.
type ArtifactStore interface {
	SaveRecording(ctx context.Context, sessionID string, data []byte) error
}

// ToolEventSink records tool-call telemetry. Failures are an
// observability concern only and must never fail the caller.
type ToolEventSink interface {
	Record(ctx context.Context, event ToolEventModel)
}

// MongoStores implements all persistence collaborators over the odm
// collections of a single tenant.
type MongoStores struct {
	mongo  *mongo.Client
	tenant string
}

func NewMongoStores(mongoClient *mongo.Client, tenant string) *MongoStores {
	return &MongoStores{mongo: mongoClient, tenant: tenant}
}

func (s *MongoStores) AppendLine(ctx context.Context, sessionID string, caseID int64, role, content string) error {
	collection := odm.CollectionOf[TranscriptModel](s.mongo, s.tenant)

	transcript, err := async.Await(collection.FindOneByID(ctx, sessionID))
	if err != nil || transcript == nil {
		transcript = &TranscriptModel{ID: sessionID, CaseID: caseID}
	}

	transcript.Lines = append(transcript.Lines, TranscriptLine{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})

	if _, err := async.Await(collection.Save(ctx, *transcript)); err != nil {
		logger.Error("Failed to append transcript line", zap.String("sessionId", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (s *MongoStores) Load(ctx context.Context, sessionID string) ([]TranscriptLine, error) {
	collection := odm.CollectionOf[TranscriptModel](s.mongo, s.tenant)

	transcript, err := async.Await(collection.FindOneByID(ctx, sessionID))
	if err != nil {
		return nil, err
	}
	if transcript == nil {
		return nil, nil
	}
	return transcript.Lines, nil
}

func (s *MongoStores) Save(ctx context.Context, sessionID string, caseID int64, doc *document.Document) error {
	sections := make(map[string]string, len(doc.Sections))
	for key, content := range doc.Sections {
		sections[string(key)] = content
	}

	model := DocumentModel{
		ID:           sessionID,
		CaseID:       caseID,
		Kind:         string(doc.Kind),
		Sections:     sections,
		Completeness: doc.Completeness,
		IsComplete:   doc.IsComplete,
		Summary:      doc.Summary,
		UpdatedOn:    time.Now().UnixMilli(),
	}

	if _, err := async.Await(odm.CollectionOf[DocumentModel](s.mongo, s.tenant).Save(ctx, model)); err != nil {
		logger.Error("Failed to save document record", zap.String("sessionId", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (s *MongoStores) SaveRecording(ctx context.Context, sessionID string, data []byte) error {
	model := NewAudioArtifactModel(sessionID, data, time.Now().UnixMilli())

	if _, err := async.Await(odm.CollectionOf[AudioArtifactModel](s.mongo, s.tenant).Save(ctx, *model)); err != nil {
		logger.Error("Failed to save audio artifact",
			zap.String("sessionId", sessionID),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *MongoStores) Record(ctx context.Context, event ToolEventModel) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedOn = time.Now().UnixMilli()

	if _, err := async.Await(odm.CollectionOf[ToolEventModel](s.mongo, s.tenant).Save(ctx, event)); err != nil {
		logger.Error("Failed to record tool event", zap.String("tool", event.Tool), zap.Error(err))
	}
}
