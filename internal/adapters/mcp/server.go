package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/usecase"
)

// Server exposes the question answering pipeline as MCP tools over stdio, so
// agent hosts can use the FAQ corpus without going through the HTTP API.
type Server struct {
	answerer ports.QuestionAnswerer
	signals  *usecase.SignalExtractor
	mcp      *server.MCPServer
}

func NewServer(answerer ports.QuestionAnswerer, signals *usecase.SignalExtractor, version string) *Server {
	s := &Server{
		answerer: answerer,
		signals:  signals,
	}

	s.mcp = server.NewMCPServer(
		"campus-faq-assistant",
		version,
		server.WithToolCapabilities(false),
	)

	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question about IIT Ropar using the indexed institutional FAQ corpus."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer."),
		),
	)
	s.mcp.AddTool(askTool, s.handleAsk)

	inspectTool := mcp.NewTool("inspect_retrieval",
		mcp.WithDescription("Run the retrieval pipeline for a question and return every intermediate decision as JSON, without generating an answer."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to trace through the pipeline."),
		),
	)
	s.mcp.AddTool(inspectTool, s.handleInspectRetrieval)

	return s
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	if s.signals != nil && s.signals.IsGreeting(question) {
		return mcp.NewToolResultText(domain.GreetingAnswer), nil
	}

	answer, err := s.answerer.AnswerQuestion(ctx, question)
	if err != nil {
		slog.Error("mcp_ask_failed", "error", err)
		return mcp.NewToolResultText(domain.FailureAnswer), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (s *Server) handleInspectRetrieval(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	diag, err := s.answerer.DebugRetrieve(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval diagnostics failed: %v", err)), nil
	}

	payload, err := json.MarshalIndent(diag, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode diagnostics: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
