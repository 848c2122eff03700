package adapter

import (
	"fmt"

	"github.com/akolanti/DocRAG/internal/api"
	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
)

var features = []string{
	"Document Upload & Processing",
	"Question Answering with Citations",
	"Confidence Scoring",
	"Document Summarization",
	"Knowledge Graph Generation",
	"Audio Podcast Generation",
	"Multi-Document Support",
}

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		JobType:   string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.Result{
			Status:       string(job.Status),
			Question:     job.JobPayload.Question,
			DocumentName: job.JobPayload.DocumentName,
			Answer:       job.JobPayload.Answer,
			Ingest:       job.JobPayload.Ingest,
		},
	}
}

func ToErrorResponse(code int, message string) api.ErrorResponse {
	return api.ErrorResponse{Error: message, StatusCode: code}
}

func ToDocumentsResponse(records []commonModels.DocumentRecord) api.DocumentsResponse {
	if records == nil {
		records = []commonModels.DocumentRecord{}
	}
	return api.DocumentsResponse{Documents: records, Count: len(records)}
}

func ToInfoResponse() api.InfoResponse {
	return api.InfoResponse{
		Name:     config.ServiceName,
		Version:  config.ServiceVersion,
		Status:   "running",
		Features: features,
	}
}

func ToHealthResponse() api.HealthResponse {
	return api.HealthResponse{Status: "healthy", Service: config.ServiceName}
}
