package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finsight/filings-mcp/internal/analyst"
	"github.com/finsight/filings-mcp/internal/retrieval"
	"github.com/finsight/filings-mcp/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	storage *storage.QdrantStorage
}

// Config holds server dependencies.
type Config struct {
	Storage   *storage.QdrantStorage
	Retriever *retrieval.Retriever
	Analyst   *analyst.Service
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "filings-analyst-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_filings",
		Description: "Analyze SEC 10-K filings to answer a financial question. Extracts companies from the query, retrieves the most relevant filing sections, and generates an analyst-style answer with exact figures.",
	}, makeAnalyzeHandler(cfg.Analyst))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_sections",
		Description: "Search one company's 10-K filing for relevant sections. Returns ranked section text without generating an answer. Use analyze_filings for a full analysis.",
	}, makeSearchHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_companies",
		Description: "List all companies with indexed 10-K filings, including filing year, summary, and section outline.",
	}, makeListHandler(cfg.Storage))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current status of the filing index including filing and section counts and the last ingestion time.",
	}, makeStatusHandler(cfg.Storage))

	return &Server{
		server:  server,
		storage: cfg.Storage,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
