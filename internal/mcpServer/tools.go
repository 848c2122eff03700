package mcpServer

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Query        string `json:"query" jsonschema:"the question to answer from the document"`
	DocumentName string `json:"document_name,omitempty" jsonschema:"document to query, defaults to the most recent upload"`
}

type DocumentInput struct {
	DocumentName string `json:"document_name,omitempty" jsonschema:"document name, defaults to the most recent upload"`
}

type ListInput struct{}

type DocumentOutput struct {
	Name       string `json:"name"`
	Chunks     int    `json:"chunks"`
	Pages      int    `json:"pages"`
	IngestedAt string `json:"ingested_at"`
}

type ListOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question from an ingested document, with citations and a confidence score",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the ingested documents",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_document",
		Description: "Summarize an ingested document",
	}, s.handleSummarize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "knowledge_graph",
		Description: "Extract the main entities of a document and the relations between them",
	}, s.handleGraph)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, commonModels.AnswerResult, error) {
	s.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("ask_document called", "document", input.DocumentName)
	res, err := s.rag.Ask(ctx, input.Query, input.DocumentName, false)
	if err != nil {
		return nil, commonModels.AnswerResult{}, err
	}
	return nil, res, nil
}

func (s *Server) handleList(_ context.Context, _ *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, ListOutput, error) {
	records := s.rag.ListDocuments()
	docs := make([]DocumentOutput, 0, len(records))
	for _, r := range records {
		docs = append(docs, DocumentOutput{
			Name:       r.Name,
			Chunks:     r.ChunkCount,
			Pages:      r.PageCount,
			IngestedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, ListOutput{Documents: docs, Count: len(docs)}, nil
}

func (s *Server) handleSummarize(ctx context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, commonModels.Summary, error) {
	summary, err := s.rag.Summarize(ctx, input.DocumentName)
	if err != nil {
		return nil, commonModels.Summary{}, err
	}
	if summary.Status == commonModels.StatusError {
		return nil, commonModels.Summary{}, fmt.Errorf("%s", summary.Message)
	}
	return nil, summary, nil
}

func (s *Server) handleGraph(ctx context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, commonModels.KnowledgeGraph, error) {
	graph, err := s.rag.KnowledgeGraph(ctx, input.DocumentName)
	if err != nil {
		return nil, commonModels.KnowledgeGraph{}, err
	}
	return nil, graph, nil
}
