package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/akolanti/DocRAG/internal/adapter"
	"github.com/akolanti/DocRAG/internal/adapter/utils"
	"github.com/akolanti/DocRAG/internal/api"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
)

// UploadDocHandler godoc
// @Summary      Upload and process a document
// @Description  Validates the file, builds a fresh vector index for it and registers it as the current document.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "Document to upload"
// @Param        document_name  query     string  false  "Name to register the document under, defaults to the file name"
// @Success      200  {object}  commonModels.IngestResult
// @Failure      400  {object}  api.ErrorResponse "Bad file type or size"
// @Failure      409  {object}  api.ErrorResponse "Name already taken and re-ingest is rejected"
// @Failure      422  {object}  api.ErrorResponse "No extractable text"
// @Failure      500  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /upload-doc [post]
func UploadDocHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := requestLogger(r)

	up, code, msg := handlerInstance.saveUpload(w, r)
	if code != 0 {
		log.Warn("File validation failed", "error", msg)
		WriteErrorResponse(w, code, msg)
		return
	}
	defer removeUpload(up.path, log)
	log.Info("Received upload", "document", up.documentName)

	result, err := handlerInstance.rag.Ingest(r.Context(), up.path, up.documentName)
	if err != nil {
		code := statusForError(err)
		log.Error("Error processing file", "error", err, "code", code)
		if code == http.StatusInternalServerError {
			WriteErrorResponse(w, code, "Error processing file: "+err.Error())
			return
		}
		WriteErrorResponse(w, code, err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, result)
}

// AskGetHandler godoc
// @Summary      Ask a question about uploaded documents
// @Description  Returns the answer with citations, a confidence score and the sources used.
// @Tags         Query
// @Produce      json
// @Param        query          query  string  true   "Question to ask"
// @Param        voice_mode     query  bool    false  "Generate an audio answer"
// @Param        document_name  query  string  false  "Specific document to query, defaults to the latest upload"
// @Success      200  {object}  commonModels.AnswerResult
// @Failure      400  {object}  api.ErrorResponse "Empty query"
// @Failure      404  {object}  api.ErrorResponse "Unknown document"
// @Security     BearerAuth
// @Router       /ask [get]
func AskGetHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	q := r.URL.Query()
	voice := false
	if raw := q.Get("voice_mode"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "voice_mode must be a boolean")
			return
		}
		voice = v
	}
	answer(w, r, api.AskRequest{Query: q.Get("query"), VoiceMode: voice, DocumentName: q.Get("document_name")})
}

// AskPostHandler godoc
// @Summary      Ask a question (JSON body)
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question, voice flag and optional document"
// @Success      200      {object}  commonModels.AnswerResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /ask [post]
func AskPostHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	req, ok := decodeAskRequest(w, r)
	if !ok {
		return
	}
	answer(w, r, req)
}

func decodeAskRequest(w http.ResponseWriter, r *http.Request) (api.AskRequest, bool) {
	var req api.AskRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the ask request reader", "error", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestLogger(r).Warn("Bad ask request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "Query cannot be empty")
		return req, false
	}
	return req, true
}

func answer(w http.ResponseWriter, r *http.Request, req api.AskRequest) {
	log := requestLogger(r)
	if strings.TrimSpace(req.Query) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "Query cannot be empty")
		return
	}
	log.Info("Processing query", "query", preview(req.Query), "document", req.DocumentName, "voice", req.VoiceMode)

	result, err := handlerInstance.rag.Ask(r.Context(), req.Query, req.DocumentName, req.VoiceMode)
	switch {
	case err == nil:
		writeJsonResponse(w, http.StatusOK, result)
	case errors.Is(err, commonModels.ErrEmptyQuery):
		WriteErrorResponse(w, http.StatusBadRequest, "Query cannot be empty")
	case commonModels.IsNotFound(err):
		WriteErrorResponse(w, http.StatusNotFound, notFoundMessage(err, req.DocumentName))
	default:
		log.Error("Error processing query", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Error processing query: "+err.Error())
	}
}

func preview(query string) string {
	runes := []rune(query)
	if len(runes) <= 50 {
		return query
	}
	return string(runes[:50]) + "..."
}

// PostIngestJobHandler godoc
// @Summary      Queue a document for ingestion
// @Description  Same validation as /upload-doc, but the index is built by a background worker. Poll the returned status URL.
// @Tags         Jobs
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "Document to upload"
// @Param        document_name  query     string  false  "Name to register the document under"
// @Success      202  {object}  api.InitJobResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /jobs/ingest [post]
func PostIngestJobHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	up, code, msg := handlerInstance.saveUpload(w, r)
	if code != 0 {
		requestLogger(r).Warn("File validation failed", "error", msg)
		WriteErrorResponse(w, code, msg)
		return
	}
	processNewJobData(w, r, newJobData{
		jobType:      jobModel.JobTypeIngest,
		documentName: up.documentName,
		filePath:     up.path,
	})
}

// PostAskJobHandler godoc
// @Summary      Queue a question
// @Description  Answers the question in a background worker. Poll the returned status URL for the result.
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest       true  "Question, voice flag and optional document"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /jobs/ask [post]
func PostAskJobHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	req, ok := decodeAskRequest(w, r)
	if !ok {
		return
	}
	processNewJobData(w, r, newJobData{
		jobType:      jobModel.JobTypeQuery,
		question:     req.Query,
		documentName: req.DocumentName,
		voiceMode:    req.VoiceMode,
	})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current state of a queued job and its result once complete.
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "The current status of the job"
// @Failure      404  {object}  api.ErrorResponse "Job not found"
// @Security     BearerAuth
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	if idString == "" {
		WriteErrorResponse(w, http.StatusNotFound, "Job not found")
		return
	}
	result, isFound := GetJobStatus(idString, traceId(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, fmt.Sprintf("Job '%s' not found", idString))
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

func processNewJobData(w http.ResponseWriter, r *http.Request, newJob newJobData) {
	newJob.id = utils.GetNewUUID()
	newJob.traceId = traceId(r.Context())
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}
