package mcpServer

import (
	"errors"
	"net/http"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/rag"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var ErrMissingRagService = errors.New("rag service is required")

// Server exposes the engine as MCP tools so agents can query ingested documents.
type Server struct {
	rag    rag.Service
	server *mcp.Server
	logger *logger_i.Logger
}

func NewServer(ragService rag.Service) (*Server, error) {
	if ragService == nil {
		return nil, ErrMissingRagService
	}
	impl := &mcp.Implementation{
		Name:    "docrag",
		Version: config.ServiceVersion,
	}
	s := &Server{
		rag:    ragService,
		server: mcp.NewServer(impl, nil),
		logger: logger_i.NewLogger("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Handler serves the streamable HTTP transport. Mount it behind the auth middleware.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
