package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/DocRAG/internal/api"
	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/data/store"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/job"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRag struct {
	OnIngest    func(ctx context.Context, path, name string) (commonModels.IngestResult, error)
	OnAsk       func(ctx context.Context, q, name string, voice bool) (commonModels.AnswerResult, error)
	OnSummarize func(ctx context.Context, name string) (commonModels.Summary, error)
	OnGraph     func(ctx context.Context, name string) (commonModels.KnowledgeGraph, error)
	OnPodcast   func(ctx context.Context, name string) (*commonModels.Podcast, error)
	Records     []commonModels.DocumentRecord
}

func (m *mockRag) Ingest(ctx context.Context, path, name string) (commonModels.IngestResult, error) {
	return m.OnIngest(ctx, path, name)
}

func (m *mockRag) Ask(ctx context.Context, q, name string, voice bool) (commonModels.AnswerResult, error) {
	return m.OnAsk(ctx, q, name, voice)
}

func (m *mockRag) Summarize(ctx context.Context, name string) (commonModels.Summary, error) {
	return m.OnSummarize(ctx, name)
}

func (m *mockRag) KnowledgeGraph(ctx context.Context, name string) (commonModels.KnowledgeGraph, error) {
	return m.OnGraph(ctx, name)
}

func (m *mockRag) Podcast(ctx context.Context, name string) (*commonModels.Podcast, error) {
	return m.OnPodcast(ctx, name)
}

func (m *mockRag) ListDocuments() []commonModels.DocumentRecord { return m.Records }

func (m *mockRag) GetDocument(name string) (commonModels.DocumentRecord, error) {
	for _, r := range m.Records {
		if r.Name == name {
			return r, nil
		}
	}
	return commonModels.DocumentRecord{}, commonModels.ErrDocumentNotFound
}

func (m *mockRag) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

func (m *mockRag) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

func setup(t *testing.T, rag *mockRag) *job.Service {
	t.Helper()
	settings := config.Defaults()
	settings.UploadDir = t.TempDir()
	settings.MaxFileSizeMB = 1

	jobs := &job.Service{
		JobChannel:        make(chan jobModel.Job, 4),
		DispatcherChannel: make(chan bool, 4),
		JobStore:          store.InitInMemoryJobStore(),
	}
	handlerInstance = &Handler{jobs: jobs, rag: rag, settings: settings}
	t.Cleanup(func() { handlerInstance = nil })
	return jobs
}

func routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", RootHandler)
	r.Get("/health", HealthHandler)
	r.Post("/upload-doc", UploadDocHandler)
	r.Get("/ask", AskGetHandler)
	r.Post("/ask", AskPostHandler)
	r.Get("/documents", ListDocumentsHandler)
	r.Get("/documents/{name}", GetDocumentHandler)
	r.Get("/summarize", SummarizeHandler)
	r.Get("/generate-graph", GraphHandler)
	r.Get("/generate-podcast", PodcastHandler)
	r.Post("/jobs/ingest", PostIngestJobHandler)
	r.Post("/jobs/ask", PostAskJobHandler)
	r.Get("/status/{id}", GetStatusHandler)
	return r
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	routes().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var res api.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, rr.Code, res.StatusCode)
	return res
}

func multipartUpload(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRootAndHealth(t *testing.T) {
	setup(t, &mockRag{})

	rr := serve(httptest.NewRequest(http.MethodGet, "/", nil))
	var info api.InfoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, "running", info.Status)
	assert.Len(t, info.Features, 7)

	rr = serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"healthy","service":"Enterprise RAG API"}`, rr.Body.String())
}

func TestAsk(t *testing.T) {
	rag := &mockRag{
		OnAsk: func(ctx context.Context, q, name string, voice bool) (commonModels.AnswerResult, error) {
			switch name {
			case "missing.pdf":
				return commonModels.AnswerResult{}, commonModels.ErrDocumentNotFound
			}
			return commonModels.AnswerResult{Answer: q + "|" + name, Confidence: 0.8, Sources: []string{"a.pdf"}}, nil
		},
	}
	setup(t, rag)

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantText string
	}{
		{"get answers", httptest.NewRequest(http.MethodGet, "/ask?query=hello&document_name=a.pdf", nil), 200, "hello|a.pdf"},
		{"get empty query", httptest.NewRequest(http.MethodGet, "/ask?query=%20", nil), 400, "Query cannot be empty"},
		{"get bad voice flag", httptest.NewRequest(http.MethodGet, "/ask?query=hi&voice_mode=maybe", nil), 400, "voice_mode"},
		{"get unknown document", httptest.NewRequest(http.MethodGet, "/ask?query=hi&document_name=missing.pdf", nil), 404, "Document 'missing.pdf' not found"},
		{"post answers", httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"hi","voice_mode":true}`)), 200, "hi|"},
		{"post empty query", httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":""}`)), 400, "Query cannot be empty"},
		{"post bad json", httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{`)), 400, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(tt.req)
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantText)
			if tt.wantCode != http.StatusOK {
				decodeError(t, rr)
			}
		})
	}
}

func TestUploadDoc(t *testing.T) {
	var seenPath, seenName string
	rag := &mockRag{
		OnIngest: func(ctx context.Context, path, name string) (commonModels.IngestResult, error) {
			seenPath, seenName = path, name
			_, err := os.Stat(path)
			require.NoError(t, err, "upload should exist while ingesting")
			if name == "taken.pdf" {
				return commonModels.IngestResult{}, commonModels.ErrDuplicateName
			}
			return commonModels.IngestResult{Status: commonModels.StatusSuccess, DocumentName: name, Chunks: 3, Pages: 2}, nil
		},
	}
	setup(t, rag)

	t.Run("success removes the temp file", func(t *testing.T) {
		rr := serve(multipartUpload(t, "/upload-doc", "report.PDF", []byte("%PDF-1.4")))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var res commonModels.IngestResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.Equal(t, "report.PDF", res.DocumentName)
		assert.Equal(t, "report.PDF", seenName)
		assert.Equal(t, ".PDF", filepath.Ext(seenPath))
		_, err := os.Stat(seenPath)
		assert.True(t, os.IsNotExist(err), "temp file should be removed")
	})

	t.Run("explicit name", func(t *testing.T) {
		rr := serve(multipartUpload(t, "/upload-doc?document_name=handbook", "report.pdf", []byte("x")))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "handbook", seenName)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		rr := serve(multipartUpload(t, "/upload-doc?document_name=taken.pdf", "report.pdf", []byte("x")))
		assert.Equal(t, http.StatusConflict, rr.Code)
		decodeError(t, rr)
	})

	t.Run("wrong extension", func(t *testing.T) {
		rr := serve(multipartUpload(t, "/upload-doc", "notes.exe", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr).Error, "File type 'exe' not allowed")
	})

	t.Run("too large", func(t *testing.T) {
		rr := serve(multipartUpload(t, "/upload-doc", "big.pdf", bytes.Repeat([]byte("a"), 3<<19)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr).Error, "File size exceeds maximum of 1MB")
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload-doc", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		rr := serve(req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDocuments(t *testing.T) {
	rag := &mockRag{Records: []commonModels.DocumentRecord{{Name: "a.pdf", ChunkCount: 2}, {Name: "b c.pdf"}}}
	setup(t, rag)

	rr := serve(httptest.NewRequest(http.MethodGet, "/documents", nil))
	var list api.DocumentsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	rr = serve(httptest.NewRequest(http.MethodGet, "/documents/b%20c.pdf", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"b c.pdf"`)

	rr = serve(httptest.NewRequest(http.MethodGet, "/documents/zzz.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Document 'zzz.pdf' not found", decodeError(t, rr).Error)
}

func TestSummarize(t *testing.T) {
	rag := &mockRag{
		OnSummarize: func(ctx context.Context, name string) (commonModels.Summary, error) {
			switch name {
			case "":
				return commonModels.Summary{}, commonModels.ErrNoDocumentIngested
			case "broken.pdf":
				return commonModels.Summary{Status: commonModels.StatusError, Message: "Error generating summary: down"}, nil
			}
			return commonModels.Summary{Status: commonModels.StatusSuccess, Summary: "short", DocumentName: name}, nil
		},
	}
	setup(t, rag)

	rr := serve(httptest.NewRequest(http.MethodGet, "/summarize", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decodeError(t, rr).Error, "Please upload a document first")

	rr = serve(httptest.NewRequest(http.MethodGet, "/summarize?document_name=broken.pdf", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error generating summary: down", decodeError(t, rr).Error)

	rr = serve(httptest.NewRequest(http.MethodGet, "/summarize?document_name=a.pdf", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"summary":"short"`)
}

func TestGraphAndPodcast(t *testing.T) {
	rag := &mockRag{
		OnGraph: func(ctx context.Context, name string) (commonModels.KnowledgeGraph, error) {
			if name == "missing.pdf" {
				return commonModels.KnowledgeGraph{}, commonModels.ErrDocumentNotFound
			}
			return commonModels.KnowledgeGraph{Nodes: []commonModels.GraphNode{{Id: "No Data", Group: 1}}, Links: []commonModels.GraphLink{}}, nil
		},
		OnPodcast: func(ctx context.Context, name string) (*commonModels.Podcast, error) {
			if name == "a.pdf" {
				return &commonModels.Podcast{Audio: "YQ==", Text: "Welcome back!"}, nil
			}
			return nil, nil
		},
	}
	setup(t, rag)

	rr := serve(httptest.NewRequest(http.MethodGet, "/generate-graph", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"nodes":[{"id":"No Data","group":1}],"links":[]}`, rr.Body.String())

	rr = serve(httptest.NewRequest(http.MethodGet, "/generate-graph?document_name=missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(httptest.NewRequest(http.MethodGet, "/generate-podcast", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "No document content available for podcast generation", decodeError(t, rr).Error)

	rr = serve(httptest.NewRequest(http.MethodGet, "/generate-podcast?document_name=a.pdf", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Welcome back!")
}

func TestJobEndpoints(t *testing.T) {
	jobs := setup(t, &mockRag{})

	rr := serve(httptest.NewRequest(http.MethodPost, "/jobs/ask", strings.NewReader(`{"query":"hi","document_name":"a.pdf"}`)))
	require.Equal(t, http.StatusAccepted, rr.Code)
	var init api.InitJobResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &init))
	assert.Equal(t, "status/"+init.Id, init.StatusURL)

	queued := <-jobs.JobChannel
	assert.Equal(t, jobModel.JobTypeQuery, queued.JobType)
	assert.Equal(t, "hi", queued.JobPayload.Question)
	assert.Equal(t, jobModel.JobStatusQueued, queued.Status)

	rr = serve(httptest.NewRequest(http.MethodGet, "/status/"+init.Id, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var status api.JobResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "QUEUED", status.Result.Status)

	rr = serve(multipartUpload(t, "/jobs/ingest", "report.pdf", []byte("x")))
	require.Equal(t, http.StatusAccepted, rr.Code)
	ingestJob := <-jobs.JobChannel
	assert.Equal(t, jobModel.JobTypeIngest, ingestJob.JobType)
	assert.Equal(t, "report.pdf", ingestJob.JobPayload.DocumentName)
	_, err := os.Stat(ingestJob.JobPayload.IngestFileName)
	assert.NoError(t, err, "the queued job owns the uploaded file")
	select {
	case <-jobs.DispatcherChannel:
	default:
		t.Error("an ingest job should ask the dispatcher for a worker")
	}

	rr = serve(httptest.NewRequest(http.MethodPost, "/jobs/ask", strings.NewReader(`{"query":" "}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(httptest.NewRequest(http.MethodGet, "/status/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
