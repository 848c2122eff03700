package api

import (
	"time"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	JobType   string            `json:"job_type" example:"Query"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status       string                     `json:"status"`
	Question     string                     `json:"question,omitempty"`
	DocumentName string                     `json:"document_name,omitempty"`
	Answer       *commonModels.AnswerResult `json:"answer,omitempty"`
	Ingest       *commonModels.IngestResult `json:"ingest,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type ErrorResponse struct {
	Error      string `json:"error" example:"Query cannot be empty"`
	StatusCode int    `json:"status_code" example:"400"`
}

type InfoResponse struct {
	Name     string   `json:"name" example:"Enterprise RAG API"`
	Version  string   `json:"version" example:"2.0.0"`
	Status   string   `json:"status" example:"running"`
	Features []string `json:"features"`
}

type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"Enterprise RAG API"`
}

type DocumentsResponse struct {
	Documents []commonModels.DocumentRecord `json:"documents"`
	Count     int                           `json:"count"`
}

// requests---------------------

type AskRequest struct {
	Query        string `json:"query" validate:"required" example:"What is the refund policy?"`
	VoiceMode    bool   `json:"voice_mode" example:"false"`
	DocumentName string `json:"document_name,omitempty" example:"handbook.pdf"`
}
