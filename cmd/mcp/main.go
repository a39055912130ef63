package main

import (
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/campus-faq-assistant/internal/adapters/mcp"
	"github.com/kirillkom/campus-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	// Stdout carries the MCP stream, logs must not interleave with it.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	pipeline := bootstrap.NewAnswerPipeline(cfg)
	srv := mcpadapter.NewServer(pipeline.Answerer, pipeline.Signals, version)

	slog.Info("mcp_serving_stdio")
	if err := srv.ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
