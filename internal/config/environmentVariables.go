package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//per job budget, ingestion embeds every chunk so it gets more room
	QueryJobTimeout  = 2 * time.Minute
	IngestJobTimeout = 10 * time.Minute

	//serverTimeouts - LLM calls are slow so the write timeout is generous
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 5 * time.Minute
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//job requests buffer limit
	BufferLimit = 100

	//uploads - form parts above this spill to disk, the extra allowance covers multipart framing
	MultipartMemory   = 32 << 20
	MultipartOverhead = 1 << 20
	UploadDirFileMode = 0o750

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false //set for https
	QdrantPoolSize          = 1     //2-5 is preferred for prod according to documentation
	QdrantScrollPageSize    = 256

	//local sqlite index
	LocalIndexFileName = "index.db"

	//embeddings
	EmbeddingBatchSize                  = 100
	EmbeddingOutputDimensionality int32 = 768
	EmbeddingTaskDocument               = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskQuery                  = "RETRIEVAL_QUERY"

	//generation
	SummaryChunkCount      = 10
	GraphChunkCount        = 6
	PodcastChunkCount      = 4
	SummaryTemperature     = 0.3
	GraphTemperature       = 0.0
	PodcastTemperature     = 0.7
	CitationExcerptLimit   = 200
	ConfidenceSimilarity   = 0.7
	ConfidenceBreadth      = 0.3
	PageExtractTimeout     = 10 * time.Second
	ProviderRequestTimeout = 3 * time.Minute
	ProviderMaxRetries     = 1

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisDocumentStore = 1

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisPingTimeout     = 3 * time.Second
	RedisCommandTimeout  = 30 * time.Second
	RedisDocumentHashKey = "documents"
	RedisCurrentDocKey   = "documents:current"

	ServiceName    = "Enterprise RAG API"
	ServiceVersion = "2.0.0"
)
