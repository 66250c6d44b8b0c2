package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/medex-ai/medex/internal/adapters/mcp"
	"github.com/medex-ai/medex/internal/bootstrap"
	"github.com/medex-ai/medex/internal/config"
	"github.com/medex-ai/medex/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	// MCP speaks JSON-RPC on stdout, so logs go to stderr only.
	slog.SetDefault(logging.NewStderrJSONLogger("mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.QueryUC, app.UserTypes, app.Emergency, version)
	if err := srv.ServeStdio(); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}
