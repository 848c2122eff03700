package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	jobmodel "github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/job"
	"github.com/akolanti/DocRAG/internal/metrics"
	"github.com/akolanti/DocRAG/internal/rag"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	_ragService        rag.Service
	minWorkerCount     = config.MinWorkerCount
	idleWorkerTimeout  = config.IdleWorkerTimeout
)

func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	signals, stop := dispatcherChannel, stopWorkerChannel
	createWorker()
	logger.Info("Dispatcher started")
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return
			}
			if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
				logger.Info("Creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
				createWorker()
			}
		case <-stop:
			return
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go worker(_jobService.JobChannel, stopWorkerChannel)
	logger.Debug("Created new worker")
}

func worker(jobs <-chan jobmodel.Job, stop <-chan bool) {
	idle := time.NewTimer(idleWorkerTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob := <-jobs:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()
			idle.Reset(idleWorkerTimeout)

		case <-stop:
			removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			// keep the floor of workers alive, retire the rest
			if count, ok := claimIdleRetirement(); ok {
				releaseWorker("Idle worker timeout", count)
				return
			}
			idle.Reset(idleWorkerTimeout)
		}
	}
}

// claimIdleRetirement decrements the worker count only while it stays above
// the minimum, so simultaneous idle timeouts never shrink the pool below it.
func claimIdleRetirement() (int64, bool) {
	for {
		current := atomic.LoadInt64(&currentWorkerCount)
		if current <= atomic.LoadInt64(&minWorkerCount) {
			return current, false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, current, current-1) {
			return current - 1, true
		}
	}
}
