package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/akolanti/DocRAG/internal/adapter"
	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag"
	"github.com/akolanti/DocRAG/internal/rag/ingest"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out, nothing left to send but the log
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(httpCode, message))
}

func traceId(ctx context.Context) string {
	id, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return id
}

func requestLogger(r *http.Request) *logger_i.Logger {
	return logRH.WithTrace(r.Context(), config.TRACE_ID_KEY)
}

func validateContext(ctx context.Context) bool {
	if handlerInstance == nil {
		logRH.Error("handlers used before InitHandlers")
		return false
	}
	if ctx.Err() != nil {
		logRH.Warn("context error", "traceId", traceId(ctx), "error", ctx.Err())
		return false
	}
	return true
}

// statusForError maps engine errors onto HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, commonModels.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, commonModels.ErrEmptyDocument), errors.Is(err, commonModels.ErrUnreadableDocument):
		return http.StatusUnprocessableEntity
	case commonModels.IsInputError(err):
		return http.StatusBadRequest
	case commonModels.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func notFoundMessage(err error, documentName string) string {
	if errors.Is(err, commonModels.ErrNoDocumentIngested) {
		return rag.NoDocumentAnswer
	}
	return fmt.Sprintf("Document '%s' not found", documentName)
}

type upload struct {
	path         string
	documentName string
}

// saveUpload validates the multipart "file" field and copies it under UploadDir.
// The caller owns the returned file.
func (h *Handler) saveUpload(w http.ResponseWriter, r *http.Request) (upload, int, string) {
	maxBytes := h.settings.MaxFileSizeBytes()
	tooLarge := fmt.Sprintf("File size exceeds maximum of %dMB", h.settings.MaxFileSizeMB)

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+config.MultipartOverhead)
	if err := r.ParseMultipartForm(config.MultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return upload{}, http.StatusBadRequest, tooLarge
		}
		return upload{}, http.StatusBadRequest, "Invalid multipart form"
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		return upload{}, http.StatusBadRequest, "No file provided"
	}
	defer fileReader.Close()

	originalName := filepath.Base(fileMetadata.Filename)
	ext := ingest.Extension(originalName)
	if !slices.Contains(h.settings.AllowedExtensions, ext) {
		return upload{}, http.StatusBadRequest, fmt.Sprintf("File type '%s' not allowed. Allowed types: %s", ext, strings.Join(h.settings.AllowedExtensions, ", "))
	}
	if fileMetadata.Size > maxBytes {
		return upload{}, http.StatusBadRequest, tooLarge
	}

	if err := os.MkdirAll(h.settings.UploadDir, config.UploadDirFileMode); err != nil {
		logRH.Error("Couldn't create upload directory", "dir", h.settings.UploadDir, "error", err)
		return upload{}, http.StatusInternalServerError, "Storage error"
	}
	destination, err := os.CreateTemp(h.settings.UploadDir, "temp_*_"+strings.ReplaceAll(originalName, "*", "_"))
	if err != nil {
		logRH.Error("Couldn't create upload file", "error", err)
		return upload{}, http.StatusInternalServerError, "Storage error"
	}
	_, copyErr := io.Copy(destination, fileReader)
	closeErr := destination.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(destination.Name())
		logRH.Error("Couldn't write upload file", "copyError", copyErr, "closeError", closeErr)
		return upload{}, http.StatusInternalServerError, "Write error"
	}

	name := strings.TrimSpace(r.FormValue("document_name"))
	if name == "" {
		name = originalName
	}
	return upload{path: destination.Name(), documentName: name}, 0, ""
}

func removeUpload(path string, log *logger_i.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not delete temp file", "path", path, "error", err)
	}
}
