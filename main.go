package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/caseway/agent-core/agent"
	"github.com/caseway/agent-core/appconfig"
	"github.com/caseway/agent-core/audio"
	"github.com/caseway/agent-core/db"
	"github.com/caseway/agent-core/llm"
	"github.com/caseway/agent-core/registry"
	"github.com/caseway/agent-core/transport"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	dotenv.LoadEnv()

	ccfgg := &appconfig.AppConfig{}
	if err := config.LoadConfig("config.ini", ccfgg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	stores := buildStores(ccfgg)

	reg := registry.NewRegistry(registry.DefaultAdmission())

	chatAgent := agent.NewAgentBuilder().
		WithClient(llm.NewOpenAIClient(ccfgg.ChatModel)).
		WithToolEventSink(stores.toolEvents).
		WithMaxTokens(ccfgg.MaxTokens).
		Build()

	var transcriber audio.Transcriber
	if ccfgg.EnableTranscription {
		transcriber = audio.NewWhisperClient(ccfgg.TranscriptionModel)
	}

	bridge := transport.NewBridge(transport.BridgeConfig{
		Registry:    reg,
		Agent:       chatAgent,
		Hub:         transport.NewHub(),
		Transcriber: transcriber,
		Language:    ccfgg.Language,
		Transcripts: stores.transcripts,
		Documents:   stores.documents,
		Artifacts:   stores.artifacts,
	})

	router := chi.NewRouter()
	router.Get("/ws", bridge.ServeWS)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: ccfgg.HTTPHost, Handler: router}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("Serving interview engine", zap.String("addr", ccfgg.HTTPHost))
		return server.ListenAndServe()
	})
	group.Go(func() error {
		return reg.StartSweeper(ctx, registry.SweepInterval)
	})
	group.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := group.Wait(); err != nil && err != http.ErrServerClosed && err != context.Canceled {
		logger.Fatal("Server terminated", zap.Error(err))
	}
}

// storeSet resolves the persistence collaborators: Mongo-backed when a
// URI is configured, in-memory otherwise.
type storeSet struct {
	transcripts db.TranscriptStore
	documents   db.DocumentStore
	artifacts   db.ArtifactStore
	toolEvents  db.ToolEventSink
}

func buildStores(ccfgg *appconfig.AppConfig) storeSet {
	if ccfgg.MongoURI == "" {
		logger.Info("No Mongo URI configured, using in-memory stores")
		stores := db.NewMemoryStores()
		return storeSet{transcripts: stores, documents: stores, artifacts: stores, toolEvents: stores}
	}

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(ccfgg.MongoURI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	stores := db.NewMongoStores(mongoClient, ccfgg.Tenant)
	return storeSet{transcripts: stores, documents: stores, artifacts: stores, toolEvents: stores}
}
