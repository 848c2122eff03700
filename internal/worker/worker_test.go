package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/job"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

// MockRagService tracks which jobs reached the engine
type MockRagService struct {
	ProcessedCount int32
	IngestCount    int32
	OnProcess      func(ctx context.Context, j jobModel.Job) jobModel.Job
}

func (m *MockRagService) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnProcess != nil {
		return m.OnProcess(ctx, j)
	}
	return j
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.IngestCount, 1)
	j.JobPayload.Ingest = &commonModels.IngestResult{Status: commonModels.StatusSuccess}
	return j
}

func (m *MockRagService) Ingest(ctx context.Context, path string, name string) (commonModels.IngestResult, error) {
	return commonModels.IngestResult{}, nil
}

func (m *MockRagService) Ask(ctx context.Context, q string, name string, voice bool) (commonModels.AnswerResult, error) {
	return commonModels.AnswerResult{}, nil
}

func (m *MockRagService) Summarize(ctx context.Context, name string) (commonModels.Summary, error) {
	return commonModels.Summary{}, nil
}

func (m *MockRagService) KnowledgeGraph(ctx context.Context, name string) (commonModels.KnowledgeGraph, error) {
	return commonModels.KnowledgeGraph{}, nil
}

func (m *MockRagService) Podcast(ctx context.Context, name string) (*commonModels.Podcast, error) {
	return nil, nil
}

func (m *MockRagService) ListDocuments() []commonModels.DocumentRecord { return nil }

func (m *MockRagService) GetDocument(name string) (commonModels.DocumentRecord, error) {
	return commonModels.DocumentRecord{}, commonModels.ErrDocumentNotFound
}

type MockJobStore struct {
	mu        sync.Mutex
	saved     []jobModel.Job
	OnSaveJob func(ctx context.Context, job jobModel.Job) error
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	m.saved = append(m.saved, j)
	m.mu.Unlock()
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPool_Flow(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	store := &MockJobStore{}
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          store,
	}
	mockRag := &MockRagService{
		OnProcess: func(ctx context.Context, j jobModel.Job) jobModel.Job {
			if j.JobPayload.Question == "" {
				j.Status = jobModel.JobStatusError
				j.Error = jobModel.JobError{Code: 400, Message: "query cannot be empty"}
			}
			return j
		},
	}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) >= 2 })
	})

	t.Run("Worker processes a query job", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "query-1", JobType: jobModel.JobTypeQuery, JobPayload: jobModel.JobPayload{Question: "what?"}}
		waitFor(t, func() bool {
			j, ok := store.GetJob(context.Background(), "query-1")
			return ok && j.Status == jobModel.JobStatusComplete
		})
		j, _ := store.GetJob(context.Background(), "query-1")
		if j.CurrentStep != jobModel.Complete || j.EndTime.IsZero() {
			t.Errorf("final job state not recorded: %+v", j)
		}
	})

	t.Run("Failed job keeps error status", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "query-2", JobType: jobModel.JobTypeQuery}
		waitFor(t, func() bool {
			j, ok := store.GetJob(context.Background(), "query-2")
			return ok && j.Status == jobModel.JobStatusError
		})
		j, _ := store.GetJob(context.Background(), "query-2")
		if j.Error.Code != 400 {
			t.Errorf("expected error code 400, got %d", j.Error.Code)
		}
	})

	t.Run("Ingest job reaches the engine", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "ingest-1", JobType: jobModel.JobTypeIngest}
		waitFor(t, func() bool {
			j, ok := store.GetJob(context.Background(), "ingest-1")
			return ok && j.Status == jobModel.JobStatusComplete && j.JobPayload.Ingest != nil
		})
		if atomic.LoadInt32(&mockRag.IngestCount) != 1 {
			t.Errorf("expected 1 ingest, got %d", mockRag.IngestCount)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	idleWorkerTimeout = 50 * time.Millisecond
	logger = logger_i.NewLogger("TestWorkerPool")
	t.Cleanup(func() {
		atomic.StoreInt64(&minWorkerCount, 1)
	})

	jobSvc := &job.Service{JobChannel: make(chan jobModel.Job)}
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stopWorkerChannel = make(chan bool)

	createWorker()
	waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) == 0 })
	wg.Wait()
}

func TestWorker_IdleKeepsMinimum(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 1)
	idleWorkerTimeout = 20 * time.Millisecond
	logger = logger_i.NewLogger("TestWorkerPool")

	jobSvc := &job.Service{JobChannel: make(chan jobModel.Job)}
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stop := make(chan bool)
	stopWorkerChannel = stop

	createWorker()
	time.Sleep(100 * time.Millisecond)
	if count := atomic.LoadInt64(&currentWorkerCount); count != 1 {
		t.Errorf("the last worker should stay alive, count is %d", count)
	}
	close(stop)
	wg.Wait()
}

func TestClaimIdleRetirement_NeverBelowMinimum(t *testing.T) {
	atomic.StoreInt64(&minWorkerCount, 2)
	atomic.StoreInt64(&currentWorkerCount, 8)
	t.Cleanup(func() {
		atomic.StoreInt64(&minWorkerCount, 1)
		atomic.StoreInt64(&currentWorkerCount, 0)
	})

	var claimed int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := claimIdleRetirement(); ok {
				atomic.AddInt64(&claimed, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if claimed != 6 {
		t.Errorf("expected 6 workers to retire, got %d", claimed)
	}
	if count := atomic.LoadInt64(&currentWorkerCount); count != 2 {
		t.Errorf("pool should stop at the minimum of 2, count is %d", count)
	}
}

func TestJobTimeout(t *testing.T) {
	if jobTimeout(jobModel.Job{JobType: jobModel.JobTypeIngest}) <= jobTimeout(jobModel.Job{JobType: jobModel.JobTypeQuery}) {
		t.Error("ingest jobs should get a larger budget than queries")
	}
}
