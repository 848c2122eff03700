package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	QueryInit        InternalStatus = "Init"
	ResolveTarget    InternalStatus = "ResolveTarget"
	Retrieve         InternalStatus = "Retrieve"
	Synthesize       InternalStatus = "Synthesize"
	ScoreConfidence  InternalStatus = "ScoreConfidence"
	ExtractCitations InternalStatus = "ExtractCitations"
	SynthesizeAudio  InternalStatus = "SynthesizeAudio"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	Failed           InternalStatus = "Failed"

	Complete InternalStatus = "Complete"

	JobTypeQuery  JobType = "Query"
	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question     string `json:"question,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
	VoiceMode    bool   `json:"voice_mode,omitempty"`

	// IngestFileName is the uploaded file on disk; the job owns it and removes it when done.
	IngestFileName string `json:"ingest_file_name,omitempty"`

	Answer *commonModels.AnswerResult `json:"answer,omitempty"`
	Ingest *commonModels.IngestResult `json:"ingest,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
