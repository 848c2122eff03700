package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/data/redisStore"
	"github.com/akolanti/DocRAG/internal/data/store"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	internalStore := redisStore.NewTestStore(client)
	jobStore := store.NewRedisJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:      jobID,
		JobType: jobModel.JobTypeQuery,
		Status:  jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			Question: "What does page two say?",
			Answer: &commonModels.AnswerResult{
				Answer:     "It lists the staff.",
				Confidence: 0.71,
				Citations:  []commonModels.Citation{{Id: 1, Page: 2, Text: "Staff"}},
				Sources:    []string{"report.pdf"},
			},
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		err := jobStore.SaveJob(ctx, testJob)
		if err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}

		if retrievedJob.JobPayload.Question != testJob.JobPayload.Question {
			t.Errorf("Data mismatch! Got %s, want %s",
				retrievedJob.JobPayload.Question, testJob.JobPayload.Question)
		}
		if retrievedJob.JobPayload.Answer == nil || retrievedJob.JobPayload.Answer.Citations[0].Page != 2 {
			t.Errorf("answer payload lost: %+v", retrievedJob.JobPayload.Answer)
		}
		if ttl := mr.TTL("job:" + jobID); ttl != config.RedisJobStoreTTL {
			t.Errorf("expected ttl %v, got %v", config.RedisJobStoreTTL, ttl)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Corrupt Job", func(t *testing.T) {
		mr.Set("job:broken", "{not json")
		if _, found := jobStore.GetJob(ctx, "broken"); found {
			t.Error("Expected found=false for corrupt payload")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)

		if mr.Exists("job:" + jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.NewRedisJobStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job missing after concurrent writes")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	s := store.InitInMemoryJobStore()
	ctx := context.Background()

	if err := s.SaveJob(ctx, jobModel.Job{Id: "a", Status: jobModel.JobStatusQueued}); err != nil {
		t.Fatal(err)
	}
	got, found := s.GetJob(ctx, "a")
	if !found || got.Status != jobModel.JobStatusQueued {
		t.Errorf("unexpected job %+v found=%v", got, found)
	}
	s.DeleteJob(ctx, "a")
	if _, found := s.GetJob(ctx, "a"); found {
		t.Error("job should be gone")
	}
}
