// @title           Enterprise RAG API
// @version         2.0.0
// @description     Document question answering with citations, confidence scores, summaries, knowledge graphs and audio podcasts.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/data/redisStore"
	"github.com/akolanti/DocRAG/internal/data/store"
	jobmodel "github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/handlers"
	"github.com/akolanti/DocRAG/internal/job"
	"github.com/akolanti/DocRAG/internal/mcpServer"
	"github.com/akolanti/DocRAG/internal/middleware"
	"github.com/akolanti/DocRAG/internal/rag"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DocRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DocRAG/internal/rag/ingest"
	"github.com/akolanti/DocRAG/internal/rag/llm"
	"github.com/akolanti/DocRAG/internal/rag/llm/gemini"
	"github.com/akolanti/DocRAG/internal/rag/llm/openaiLLM"
	"github.com/akolanti/DocRAG/internal/rag/registry"
	"github.com/akolanti/DocRAG/internal/rag/speech"
	"github.com/akolanti/DocRAG/internal/rag/speech/openaiSpeech"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB/localDB"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/DocRAG/internal/server"
	"github.com/akolanti/DocRAG/internal/worker"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/joho/godotenv"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	// a missing .env is fine, the environment and defaults still apply
	_ = godotenv.Load()

	settings, err := config.Load()
	if err != nil {
		logger_i.NewLogger("main").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logCloser, err := logger_i.Init(logger_i.Options{Level: settings.LogLevel, JSON: settings.IsProd(), LogFile: settings.LogFile})
	var logger = logger_i.NewLogger("main")
	if err != nil {
		logger.Error("Could not open log file, logging to stdout only", "file", settings.LogFile, "error", err)
	}
	defer logCloser.Close()

	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr(), "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	redisOpts := redisStore.Options{Addr: settings.RedisAddr, Password: settings.RedisPassword}

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	if redisJobs := store.GetRedisJobStore(serviceContext, redisOpts); redisJobs != nil {
		serviceConfig.JobStore = redisJobs
	} else {
		logger.Warn("Redis job store is offline, falling back to memory")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	}
	jobService := job.InitJobService(serviceConfig)

	embedder := newEmbedder(serviceContext, settings)
	llmProvider := newLLM(serviceContext, settings)
	indexes := newIndexStore(serviceContext, settings, logger)

	if embedder == nil || llmProvider == nil {
		logger.Error("One or more model providers failed to initialize. Shutting down.")
		logger.Debug("Available services", "Embedder", embedder != nil, "LLMProvider", llmProvider != nil)
		return
	}
	logger.Info("Model providers ready", "llm", llmProvider.ModelName(), "embedding", embedder.ModelName())

	var registryOpts []registry.Option
	if documents := store.GetRedisDocumentStore(serviceContext, redisOpts); documents != nil {
		registryOpts = append(registryOpts, registry.WithPersister(documents))
	} else {
		logger.Warn("Redis document catalog is offline, the registry will not survive restarts")
	}
	docRegistry := registry.New(indexes, registryOpts...)
	if restored, err := docRegistry.Restore(serviceContext); err != nil {
		logger.Warn("Could not restore document registry", "error", err)
	} else if restored > 0 {
		logger.Info("Restored document registry", "documents", restored)
	}

	ragService := rag.NewService(rag.Dependencies{
		Indexes:  indexes,
		Registry: docRegistry,
		LLM:      llmProvider,
		Embedder: embedder,
		Speech:   newSpeech(settings),
		Chunker:  ingest.NewChunker(ingest.WithChunkSize(settings.ChunkSize), ingest.WithOverlap(settings.ChunkOverlap)),
	}, rag.OptionsFromSettings(settings))

	handlers.InitHandlers(jobService, ragService, settings)
	middleware.Init(settings)
	middleware.StartPruning(stopWorkerChannel, 10*time.Minute)

	mcp, err := mcpServer.NewServer(ragService)
	if err != nil {
		logger.Error("Could not start MCP server", "error", err)
		return
	}

	//init worker pool
	worker.InitServices(jobService, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, mcp.Handler())

	<-stopExecution
	logger.Info("Server stopped")
}

func newEmbedder(ctx context.Context, s config.Settings) embedding.Embedder {
	if s.EmbeddingBackend == config.BackendGemini {
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, s.EmbeddingModel, s.GoogleAPIKey)
	}
	return openaiEmbedding.NewEmbedder(s.LLMBaseURL, s.LLMAPIKey, s.EmbeddingModel)
}

func newLLM(ctx context.Context, s config.Settings) llm.Provider {
	if s.LLMBackend == config.BackendGemini {
		return gemini.GetGeminiClient(ctx, s.LLMModel, s.GoogleAPIKey)
	}
	return openaiLLM.NewClient(s.LLMBaseURL, s.LLMAPIKey, s.LLMModel)
}

func newSpeech(s config.Settings) speech.Synthesizer {
	if s.TTSBaseURL == "" {
		return nil
	}
	return openaiSpeech.NewSynthesizer(s.TTSBaseURL, s.TTSAPIKey, s.TTSModel, s.TTSVoice)
}

func newIndexStore(ctx context.Context, s config.Settings, logger *logger_i.Logger) vectorDB.IndexStore {
	if s.IndexBackend == config.IndexBackendQdrant {
		if q := qdrantDB.GetQuadrantClient(ctx, s.QdrantHost, s.QdrantPort, s.DBStoragePrefix); q != nil {
			return q
		}
		logger.Warn("Qdrant is unavailable, falling back to the local index store")
	}
	return localDB.NewStore(s.DBStoragePrefix)
}
