package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/job"
	"github.com/akolanti/DocRAG/internal/metrics"
	"github.com/akolanti/DocRAG/internal/rag"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

var (
	handlerInstance *Handler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
	logRH           = logger_i.NewLogger("RequestHandler")
)

// Handler holds what the HTTP endpoints need: the engine for synchronous
// calls and the job service for the queued variants.
type Handler struct {
	jobs     *job.Service
	rag      rag.Service
	settings config.Settings
}

func InitHandlers(jobService *job.Service, ragService rag.Service, settings config.Settings) {
	once.Do(func() {
		handlerInstance = &Handler{jobs: jobService, rag: ragService, settings: settings}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting handlers")
	})
}

type newJobData struct {
	id           string
	traceId      string
	jobType      jobModel.JobType
	question     string
	documentName string
	voiceMode    bool
	filePath     string
}

func CreateNewJob(newJob newJobData) {
	logJH.Info("To create new job", "traceId", newJob.traceId, "jobId", newJob.id, "type", newJob.jobType)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.jobs.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *Handler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{
		Id:          newJob.id,
		TraceId:     newJob.traceId,
		JobType:     newJob.jobType,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		JobPayload: jobModel.JobPayload{
			Question:       newJob.question,
			DocumentName:   newJob.documentName,
			VoiceMode:      newJob.voiceMode,
			IngestFileName: newJob.filePath,
		},
	}
	if newJob.jobType == jobModel.JobTypeIngest {
		_job.CurrentStep = jobModel.IngestInit
	} else {
		_job.CurrentStep = jobModel.QueryInit
	}

	// recorded before queueing so the status endpoint sees the job straight away
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.jobs.JobStore.SaveJob(ctx, _job); err != nil {
		logJH.Warn("Couldn't record queued job", "jobId", _job.Id, "error", err)
	}

	metrics.IncrementJobsInQueue()

	h.jobs.JobChannel <- _job //blocking send so a flood of requests backs up here instead of in memory
	logJH.Info("Created new job", "jobId", _job.Id)

	//a new worker every RequestsPerNewWorkerCount requests, and one per ingest
	//since embedding a document keeps a worker busy for a long time
	//idle workers retire on their own
	accurateCount := atomic.AddInt64(&h.jobs.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		logJH.Debug("Worker count", "requests", accurateCount)
		h.jobs.DispatcherChannel <- true
	}
}
