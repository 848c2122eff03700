package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	jobmodel "github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/metrics"
)

func jobTimeout(job jobmodel.Job) time.Duration {
	if job.JobType == jobmodel.JobTypeIngest {
		return config.IngestJobTimeout
	}
	return config.QueryJobTimeout
}

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.JobType)+"_"+string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout(job))
	defer cancel()
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	log.Debug("Processing job", "jobId", job.Id, "type", job.JobType)

	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)

	if job.JobType == jobmodel.JobTypeIngest {
		job.CurrentStep = jobmodel.IngestProcessing
		job = _ragService.IngestDocument(ctx, job)
	} else {
		job = _ragService.ProcessRequest(ctx, job)
	}

	job.EndTime = time.Now()
	if job.Status == jobmodel.JobStatusError {
		log.Warn("Job failed", "jobId", job.Id, "error", job.Error.Message)
		job = saveJobState(ctx, job, jobmodel.JobStatusError)
		return
	}
	job.CurrentStep = jobmodel.Complete
	job = saveJobState(ctx, job, jobmodel.JobStatusComplete)
	log.Debug("Job complete", "jobId", job.Id, "elapsed", time.Since(start))
}

func removeWorker(reason string) {
	releaseWorker(reason, atomic.AddInt64(&currentWorkerCount, -1))
}

// releaseWorker finishes a worker whose slot has already been taken off currentWorkerCount.
func releaseWorker(reason string, count int64) {
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	workerWaitGroup.Done()
}

// the final save uses a fresh context so a timed out job still records its state
func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	saveCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), config.RedisCommandTimeout)
		defer cancel()
	}
	if err := _jobService.JobStore.SaveJob(saveCtx, job); err != nil {
		logger.Error("Failed to save job state", "jobId", job.Id, "err", err)
	}
	return job
}
