package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/filing-extractor/internal/assemble"
	"github.com/a3tai/filing-extractor/internal/config"
	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/export"
	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/mcp"
	"github.com/a3tai/filing-extractor/internal/pdf"
	"github.com/a3tai/filing-extractor/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitPartial = 3
)

// extractor is the slice of the pipeline the CLI drives
type extractor interface {
	ExtractFile(ctx context.Context, path, id string) (*filing.DocumentExtraction, error)
	Batch(ctx context.Context, paths []string) ([]pipeline.BatchResult, error)
	Fields() []filing.FieldKind
}

// newLogger writes structured logs to w. Stdout is reserved for results
// and the MCP protocol.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// runCLI extracts the given inputs and returns the process exit code. A
// single file prints one JSON object; several files (or a directory) print
// one JSON object per line in input order.
func runCLI(ctx context.Context, cfg *config.Config, ex extractor, args []string, stdout io.Writer, logger *slog.Logger) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: filing-extractor [flags] <file.pdf|dir>...")
		return exitUsage
	}

	inputs, err := pdf.NewSearch(cfg.MaxFileSize).ExpandInputs(args)
	if err != nil {
		logger.Error("cli.inputs.invalid", "err", err)
		return exitUsage
	}
	if len(inputs) == 0 {
		logger.Error("cli.inputs.empty", "args", args)
		return exitUsage
	}

	if len(inputs) == 1 && cfg.ExportPath == "" {
		return extractOne(ctx, ex, inputs[0], stdout, logger)
	}
	return extractBatch(ctx, cfg, ex, inputs, stdout, logger)
}

func extractOne(ctx context.Context, ex extractor, path string, stdout io.Writer, logger *slog.Logger) int {
	result, err := ex.ExtractFile(ctx, path, "")
	if err != nil {
		logger.Error("cli.extract.failed", "path", path, "type", errors.TypeOf(err), "err", err)
		return exitFailed
	}
	if err := writeJSON(stdout, result); err != nil {
		logger.Error("cli.output.failed", "err", err)
		return exitFailed
	}
	return exitOK
}

func extractBatch(ctx context.Context, cfg *config.Config, ex extractor, paths []string, stdout io.Writer, logger *slog.Logger) int {
	results, err := ex.Batch(ctx, paths)
	if err != nil {
		logger.Warn("cli.batch.interrupted", "err", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if err := writeJSON(stdout, r.Extraction); err != nil {
			logger.Error("cli.output.failed", "path", r.Path, "err", err)
			return exitFailed
		}
	}

	if cfg.ExportPath != "" {
		if err := export.NewService(logger).WriteXLSX(cfg.ExportPath, results, ex.Fields()); err != nil {
			logger.Error("cli.export.failed", "path", cfg.ExportPath, "err", err)
			return exitFailed
		}
	}

	logger.Info("cli.batch.done", "documents", len(results), "failed", failed)
	switch {
	case failed == 0:
		return exitOK
	case failed == len(results):
		return exitFailed
	default:
		return exitPartial
	}
}

func writeJSON(w io.Writer, ex *filing.DocumentExtraction) error {
	data, err := assemble.Marshal(ex)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, args, err := config.Load(os.Args[1:])
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(exitUsage)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)
	if cfg.IsDebug() {
		logger.Debug("cli.config", "config", cfg.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.FromConfig(cfg, logger)

	if cfg.IsStdioMode() {
		server, err := mcp.NewServer(cfg, p, logger)
		if err != nil {
			logger.Error("mcp.init.failed", "err", err)
			os.Exit(exitFailed)
		}
		if err := server.Run(ctx); err != nil {
			logger.Error("mcp.stdio.failed", "err", err)
			os.Exit(exitFailed)
		}
		return
	}

	code := runCLI(ctx, cfg, p, args, os.Stdout, logger)
	stop()
	os.Exit(code)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Filing Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
