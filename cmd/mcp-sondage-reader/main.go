package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-sondage-reader/internal/config"
	"github.com/a3tai/mcp-sondage-reader/internal/logging"
	"github.com/a3tai/mcp-sondage-reader/internal/mcp"
	"github.com/a3tai/mcp-sondage-reader/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// realMain runs the program and returns its exit code
func realMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case err != nil:
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitUsage
	}

	if version != "dev" {
		cfg.Version = version
	}

	// stdout carries the MCP protocol in stdio mode, so logs always go to stderr
	logger, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to set up logging: %v\n", err)
		return exitUsage
	}
	logging.SetLogger(logger)
	logger.Debug("starting", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsBatchMode() {
		err = runBatch(ctx, cfg, stdin, stdout, logger)
	} else {
		err = runStdio(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("run failed", "mode", cfg.Mode, "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

// runStdio serves the MCP tools on stdin/stdout until the client goes away
func runStdio(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, settings, logger)
	if err != nil {
		return fmt.Errorf("failed to create PDF service: %w", err)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	return server.Run(ctx)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Sondage Reader\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
