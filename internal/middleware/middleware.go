package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/DocRAG/internal/handlers"
	"github.com/akolanti/DocRAG/internal/metrics"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
	public     bool
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var RootHandler = WrapPublic(handlers.RootHandler)
var HealthHandler = WrapPublic(handlers.HealthHandler)

var UploadDocHandler = Wrap(handlers.UploadDocHandler)
var AskGetHandler = Wrap(handlers.AskGetHandler)
var AskPostHandler = Wrap(handlers.AskPostHandler)
var ListDocumentsHandler = Wrap(handlers.ListDocumentsHandler)
var GetDocumentHandler = Wrap(handlers.GetDocumentHandler)
var SummarizeHandler = Wrap(handlers.SummarizeHandler)
var GraphHandler = Wrap(handlers.GraphHandler)
var PodcastHandler = Wrap(handlers.PodcastHandler)
var PostIngestJobHandler = Wrap(handlers.PostIngestJobHandler)
var PostAskJobHandler = Wrap(handlers.PostAskJobHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)

// Wrap runs the full chain: trace, auth, rate limit, status metrics.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrap(next, false)
}

// WrapPublic skips authentication.
func WrapPublic(next http.HandlerFunc) http.HandlerFunc {
	return wrap(next, true)
}

func wrap(next http.HandlerFunc, public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		path := routePattern(r)
		re := processRequest(requestResponseStruct{req: r, writer: rec, public: public})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	if !re.public {
		re = authenticate(re)
		if re.badRequest.isBadRequest {
			return re //stop if auth fails
		}
	}
	return rateLimiter(re)
}
