package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/DocRAG/internal/adapter/utils"
	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/middleware"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes registers every endpoint on the shared router. mcpHandler may be nil.
func Routes(mcpHandler http.Handler) http.Handler {
	r := utils.GetRouter()

	r.Router.Get("/", middleware.RootHandler)
	r.Router.Get("/health", middleware.HealthHandler)

	r.Router.Post("/upload-doc", middleware.UploadDocHandler)
	r.Router.Get("/ask", middleware.AskGetHandler)
	r.Router.Post("/ask", middleware.AskPostHandler)
	r.Router.Get("/documents", middleware.ListDocumentsHandler)
	r.Router.Get("/documents/{name}", middleware.GetDocumentHandler)
	r.Router.Get("/summarize", middleware.SummarizeHandler)
	r.Router.Get("/generate-graph", middleware.GraphHandler)
	r.Router.Get("/generate-podcast", middleware.PodcastHandler)

	r.Router.Post("/jobs/ingest", middleware.PostIngestJobHandler)
	r.Router.Post("/jobs/ask", middleware.PostAskJobHandler)
	r.Router.Get("/status/{id}", middleware.GetStatusHandler)

	if mcpHandler != nil {
		r.Router.Handle("/mcp", middleware.Wrap(mcpHandler.ServeHTTP))
	}
	return r.Router
}

func CreateServer(listenAddr string, mcpHandler http.Handler) {
	_logger = logger_i.NewLogger("Server")

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(mcpHandler),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	log := logger_i.NewLogger("Shutdown")
	state := <-shutdownParams.GracefulShutdown
	log.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		log.Info("Gracefully shut down")
	case <-ctx.Done():
		log.Info("Force shut down")
		os.Exit(1)
	}
}
