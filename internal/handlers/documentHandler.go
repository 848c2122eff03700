package handlers

import (
	"net/http"
	"net/url"

	"github.com/akolanti/DocRAG/internal/adapter"
	"github.com/akolanti/DocRAG/internal/adapter/utils"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
)

// RootHandler godoc
// @Summary      API information
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.InfoResponse
// @Router       / [get]
func RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToInfoResponse())
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToHealthResponse())
}

// ListDocumentsHandler godoc
// @Summary      List uploaded documents
// @Tags         Documents
// @Produce      json
// @Success      200  {object}  api.DocumentsResponse
// @Security     BearerAuth
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentsResponse(handlerInstance.rag.ListDocuments()))
}

// GetDocumentHandler godoc
// @Summary      Get information about a document
// @Tags         Documents
// @Produce      json
// @Param        name  path      string  true  "Document name"
// @Success      200   {object}  commonModels.DocumentRecord
// @Failure      404   {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{name} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	name := utils.GetChiURLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	record, err := handlerInstance.rag.GetDocument(name)
	if err != nil || name == "" {
		WriteErrorResponse(w, http.StatusNotFound, notFoundMessage(commonModels.ErrDocumentNotFound, name))
		return
	}
	writeJsonResponse(w, http.StatusOK, record)
}

// SummarizeHandler godoc
// @Summary      Summarize a document
// @Description  Executive summary, key points and important details from the start of the document.
// @Tags         Analysis
// @Produce      json
// @Param        document_name  query     string  false  "Specific document, defaults to the latest upload"
// @Success      200  {object}  commonModels.Summary
// @Failure      404  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /summarize [get]
func SummarizeHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := requestLogger(r)
	name := r.URL.Query().Get("document_name")

	summary, err := handlerInstance.rag.Summarize(r.Context(), name)
	if err != nil {
		WriteErrorResponse(w, statusForError(err), notFoundMessage(err, name))
		return
	}
	if summary.Status == commonModels.StatusError {
		log.Error("Error generating summary", "message", summary.Message)
		WriteErrorResponse(w, http.StatusInternalServerError, summary.Message)
		return
	}
	writeJsonResponse(w, http.StatusOK, summary)
}

// GraphHandler godoc
// @Summary      Generate a knowledge graph
// @Description  Entities and relationships from the start of the document. Failures come back as a single sentinel node.
// @Tags         Analysis
// @Produce      json
// @Param        document_name  query     string  false  "Specific document, defaults to the latest upload"
// @Success      200  {object}  commonModels.KnowledgeGraph
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /generate-graph [get]
func GraphHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	name := r.URL.Query().Get("document_name")

	graph, err := handlerInstance.rag.KnowledgeGraph(r.Context(), name)
	if err != nil {
		WriteErrorResponse(w, statusForError(err), notFoundMessage(err, name))
		return
	}
	writeJsonResponse(w, http.StatusOK, graph)
}

// PodcastHandler godoc
// @Summary      Generate an audio podcast intro
// @Tags         Analysis
// @Produce      json
// @Param        document_name  query     string  false  "Specific document, defaults to the latest upload"
// @Success      200  {object}  commonModels.Podcast
// @Failure      404  {object}  api.ErrorResponse "Nothing to narrate or synthesis failed"
// @Security     BearerAuth
// @Router       /generate-podcast [get]
func PodcastHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	name := r.URL.Query().Get("document_name")

	podcast, err := handlerInstance.rag.Podcast(r.Context(), name)
	if err != nil {
		WriteErrorResponse(w, statusForError(err), notFoundMessage(err, name))
		return
	}
	if podcast == nil {
		WriteErrorResponse(w, http.StatusNotFound, "No document content available for podcast generation")
		return
	}
	writeJsonResponse(w, http.StatusOK, podcast)
}
