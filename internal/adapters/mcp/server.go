// Package mcpadapter exposes detection and retrieval as MCP tools so agent
// frontends can call the pipeline without going through the HTTP API.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/medex-ai/medex/internal/core/ports"
)

type Server struct {
	queryUC   ports.QueryService
	userTypes ports.UserTypeClassifier
	emergency ports.EmergencyClassifier
	mcpServer *server.MCPServer
}

func NewServer(
	queryUC ports.QueryService,
	userTypes ports.UserTypeClassifier,
	emergency ports.EmergencyClassifier,
	version string,
) *Server {
	s := &Server{
		queryUC:   queryUC,
		userTypes: userTypes,
		emergency: emergency,
	}

	mcpServer := server.NewMCPServer(
		"medex",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	mcpServer.AddTool(
		mcp.NewTool("classify_user_type",
			mcp.WithDescription("Classify a Spanish medical query as coming from a healthcare professional or a layperson."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The user query to classify."),
			),
		),
		s.handleClassifyUserType,
	)

	mcpServer.AddTool(
		mcp.NewTool("classify_emergency",
			mcp.WithDescription("Detect whether a Spanish medical query describes an urgent or critical emergency and categorize it."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The user query to inspect."),
			),
		),
		s.handleClassifyEmergency,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_medical_knowledge",
			mcp.WithDescription("Search the medical corpus with hybrid dense+sparse retrieval and return a formatted Spanish context block with citations."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The medical question to search for."),
			),
			mcp.WithNumber("top_k",
				mcp.Description("Maximum number of result chunks, default 5."),
			),
		),
		s.handleSearch,
	)

	s.mcpServer = mcpServer
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleClassifyUserType(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(s.userTypes.DetectUserType(query))
}

func (s *Server) handleClassifyEmergency(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(s.emergency.DetectEmergency(query))
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK := req.GetInt("top_k", 5)

	result, err := s.queryUC.ProcessQuery(ctx, ports.QueryRequest{
		Text: query,
		TopK: topK,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonToolResult(result)
}

func jsonToolResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
