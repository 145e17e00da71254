package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/latexsim/latex-similarity/internal/adapters/mcp"
	"github.com/latexsim/latex-similarity/internal/bootstrap"
	"github.com/latexsim/latex-similarity/internal/config"
	"github.com/latexsim/latex-similarity/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	s := mcpadapter.NewServer(cfg.ServiceName, version, app.CompareUC, app.Catalog, logger)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
