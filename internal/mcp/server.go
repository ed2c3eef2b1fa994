// Package mcp exposes filing extraction as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/filing-extractor/internal/assemble"
	"github.com/a3tai/filing-extractor/internal/config"
	"github.com/a3tai/filing-extractor/internal/descriptions"
	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/pdf"
	"github.com/a3tai/filing-extractor/internal/pdf/security"
)

// Tool names
const (
	ToolExtractFields = "extract_filing_fields"
	ToolValidate      = "validate_filing"
	ToolFind          = "find_filings"
	ToolServerInfo    = "filing_server_info"
)

// maxListedFilings caps the directory listing in the server info output
const maxListedFilings = 10

// Extractor runs the extraction pipeline for one file
type Extractor interface {
	ExtractFile(ctx context.Context, path, id string) (*filing.DocumentExtraction, error)
	Fields() []filing.FieldKind
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	extractor Extractor
	paths     *security.PathValidator
	validator *pdf.Validator
	search    *pdf.Search
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance. Tool paths are confined to
// cfg.PDFDirectory, which must exist.
func NewServer(cfg *config.Config, extractor Extractor, logger *slog.Logger) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("invalid filing directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		extractor: extractor,
		paths:     paths,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		search:    pdf.NewSearch(cfg.MaxFileSize),
		mcpServer: mcpServer,
		logger:    logger,
	}
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		ToolExtractFields,
		mcp.WithDescription(descriptions.ExtractFilingFieldsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the filing PDF, absolute or relative to the filing directory"),
		),
		mcp.WithString("document_id",
			mcp.Description("Optional document identifier; derived from the file contents when empty"),
		),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolValidate,
		mcp.WithDescription(descriptions.ValidateFilingDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the filing PDF, absolute or relative to the filing directory"),
		),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolFind,
		mcp.WithDescription(descriptions.FindFilingsDescription),
		mcp.WithString("directory",
			mcp.Description("Subdirectory to search (uses the filing directory if empty)"),
		),
	), s.handleFind)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolServerInfo,
		mcp.WithDescription(descriptions.FilingServerInfoDescription),
	), s.handleServerInfo)
}

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.paths.Resolve(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var id string
	if v, ok := request.GetArguments()["document_id"].(string); ok {
		id = strings.TrimSpace(v)
	}

	ex, err := s.extractor.ExtractFile(ctx, path, id)
	if err != nil {
		s.logger.Warn("mcp.extract.failed", "path", path, "type", errors.TypeOf(err), "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := assemble.Marshal(ex)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp.extract.ok", "path", path, "document_id", ex.DocumentID, "degraded", ex.Degraded)
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleValidate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.paths.Resolve(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := s.validator.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Filing validation failed for %s: %s", path, err)), nil
	}
	pages, err := s.validator.ValidateStructure(data)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Filing validation failed for %s: %s", path, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filing %s is valid and readable\nPages: %d\nSize: %d bytes\n", path, pages, len(data))
	if r, err := pdf.NewReader(data); err == nil {
		writeInfo(&b, r.Info())
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeInfo(b *strings.Builder, info pdf.Info) {
	for _, kv := range [][2]string{
		{"Title", info.Title},
		{"Author", info.Author},
		{"Subject", info.Subject},
		{"Producer", info.Producer},
		{"Created", info.Created},
	} {
		if kv[1] != "" {
			fmt.Fprintf(b, "%s: %s\n", kv[0], kv[1])
		}
	}
}

func (s *Server) handleFind(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	directory := s.paths.Root()
	if dir, ok := request.GetArguments()["directory"].(string); ok && strings.TrimSpace(dir) != "" {
		resolved, err := s.paths.Resolve(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		directory = resolved
	}

	files, err := s.search.FindPDFs(directory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No filings found in directory: %s", directory)), nil
	}
	return mcp.NewToolResultText(s.formatFilings(directory, files)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.search.FindPDFs(s.paths.Root())
	if err != nil {
		// An unreadable root still gets an info page.
		s.logger.Warn("mcp.info.search_failed", "dir", s.paths.Root(), "err", err)
		files = nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func (s *Server) formatFilings(directory string, files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d filing(s) in directory: %s\n\nFiles:\n", len(files), directory)
	for i, f := range files {
		rel, err := filepath.Rel(s.paths.Root(), f)
		if err != nil {
			rel = f
		}
		fmt.Fprintf(&b, "%d. %s\n   Path: %s\n", i+1, rel, f)
	}
	return b.String()
}

func (s *Server) formatServerInfo(files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Filing Directory: %s\n", s.paths.Root())
	fmt.Fprintf(&b, "Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	if s.config.OCRURL != "" {
		fmt.Fprintf(&b, "OCR Service: %s\n", s.config.OCRURL)
	} else {
		b.WriteString("OCR Service: disabled\n")
	}
	if s.config.AnnotatorURL != "" {
		fmt.Fprintf(&b, "Entity Annotator: %s\n", s.config.AnnotatorURL)
	} else {
		b.WriteString("Entity Annotator: built-in rules\n")
	}

	names := make([]string, 0, len(s.extractor.Fields()))
	for _, f := range s.extractor.Fields() {
		names = append(names, f.String())
	}
	fmt.Fprintf(&b, "Fields: %s\n\n", strings.Join(names, ", "))

	if len(files) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d filings found):\n", len(files))
		for i, f := range files {
			if i >= maxListedFilings {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(files)-maxListedFilings)
				break
			}
			fmt.Fprintf(&b, "   %d. %s\n", i+1, filepath.Base(f))
		}
	} else {
		b.WriteString("Directory Contents: No filings found in the filing directory\n")
	}

	b.WriteString("\nAvailable Tools:\n")
	for _, t := range []struct{ name, params string }{
		{ToolExtractFields, "path (required), document_id (optional)"},
		{ToolValidate, "path (required)"},
		{ToolFind, "directory (optional)"},
		{ToolServerInfo, "none"},
	} {
		fmt.Fprintf(&b, "  • %s: %s\n", t.name, t.params)
	}
	return b.String()
}

// Run serves MCP over stdin and stdout until ctx is done or input ends
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp.stdio.start", "server", s.config.ServerName, "dir", s.paths.Root())

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
