package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-sondage-reader/internal/config"
	"github.com/a3tai/mcp-sondage-reader/internal/descriptions"
	"github.com/a3tai/mcp-sondage-reader/internal/export"
	"github.com/a3tai/mcp-sondage-reader/internal/pdf"
	"github.com/a3tai/mcp-sondage-reader/internal/review"
	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
)

// Server represents the MCP server. It keeps the review state of the
// reports extracted during the session.
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *slog.Logger

	mu     sync.Mutex
	store  *sondage.Store
	runID  string
	source string
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
		store:      pdfService.NewStore(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	tool := func(name string, opts ...mcp.ToolOption) mcp.Tool {
		return mcp.NewTool(name, append([]mcp.ToolOption{
			mcp.WithDescription(descriptions.GetToolDescription(name)),
		}, opts...)...)
	}
	sondageName := mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Borehole name, e.g. SP12 or \"Page 3\""),
	)

	s.mcpServer.AddTool(tool(descriptions.ToolValidate,
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF report, relative to the PDF directory or absolute"),
		),
	), s.handleValidateFile)

	s.mcpServer.AddTool(tool(descriptions.ToolExtract,
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF report, relative to the PDF directory or absolute"),
		),
		mcp.WithNumber("depth_start", mcp.Description("First depth of the ladder, in metres")),
		mcp.WithNumber("depth_end", mcp.Description("Last depth of the ladder, included when reachable")),
		mcp.WithNumber("depth_step", mcp.Description("Depth increment, positive")),
	), s.handleExtract)

	s.mcpServer.AddTool(tool(descriptions.ToolShow, sondageName), s.handleShow)

	s.mcpServer.AddTool(tool(descriptions.ToolEdit,
		sondageName,
		mcp.WithString("column",
			mcp.Required(),
			mcp.Description("Column to edit: Depth or one of the keywords"),
		),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Description("delete, insert, append, null, set or move"),
		),
		mcp.WithNumber("index", mcp.Description("Zero based position the operation applies to")),
		mcp.WithNumber("to", mcp.Description("Target position of a move")),
		mcp.WithString("value", mcp.Description("New value; comma or dot decimals; empty for an empty cell")),
	), s.handleEdit)

	s.mcpServer.AddTool(tool(descriptions.ToolAccept, sondageName), s.handleAccept)
	s.mcpServer.AddTool(tool(descriptions.ToolReopen, sondageName), s.handleReopen)

	s.mcpServer.AddTool(tool(descriptions.ToolSave,
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Session file to write (YAML)"),
		),
	), s.handleSaveSession)

	s.mcpServer.AddTool(tool(descriptions.ToolLoad,
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Session file to read (YAML)"),
		),
	), s.handleLoadSession)

	s.mcpServer.AddTool(tool(descriptions.ToolExport,
		mcp.WithString("output",
			mcp.Description("Workbook to write; defaults to "+config.DefaultOutput),
		),
	), s.handleExport)

	s.mcpServer.AddTool(tool(descriptions.ToolServerInfo), s.handleServerInfo)
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateFile(pdf.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF report %s is valid and readable (%d page(s))", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	depth, err := s.depthArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// each run starts from an empty store; the current review state stays
	// in place when the run fails
	store := s.pdfService.NewStore()
	result, err := s.pdfService.ExtractSondages(ctx, pdf.ExtractRequest{Path: path}, store, sondage.FixedDepth(depth))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous := s.store.Len(); previous > 0 {
		s.logger.Info("extraction replaces review state", "previous_sondages", previous, "source", result.Path)
	}
	s.store = store
	s.runID = result.Report.RunID
	s.source = result.Path

	return mcp.NewToolResultText(formatExtractResult(result)), nil
}

// depthArgument reads the depth ladder of an extraction, falling back to
// the configured range for missing arguments
func (s *Server) depthArgument(args map[string]interface{}) (sondage.DepthRange, error) {
	var r sondage.DepthRange
	if s.config.Depth != nil {
		r = *s.config.Depth
	}

	fields := []struct {
		key string
		dst *float64
	}{
		{"depth_start", &r.Start},
		{"depth_end", &r.End},
		{"depth_step", &r.Step},
	}
	for _, f := range fields {
		v, ok, err := numberArgument(args, f.key)
		if err != nil {
			return r, err
		}
		if ok {
			*f.dst = v
		} else if s.config.Depth == nil {
			return r, fmt.Errorf("%s is required (no depth range configured)", f.key)
		}
	}

	if _, err := r.Ladder(); err != nil {
		return r, err
	}
	return r, nil
}

func (s *Server) handleShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sd, ok := s.store.Get(name)
	if !ok {
		return mcp.NewToolResultError(unknownSondage(name, s.store.Names())), nil
	}

	return mcp.NewToolResultText(formatSondage(sd, s.store.Columns(), s.store.IsValidated(name))), nil
}

func (s *Server) handleEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edit, err := editArgument(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wasValidated := s.store.IsValidated(edit.Sondage)
	if err := review.Apply(s.store, edit); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("review edit applied", "edit", edit.String())

	sd, _ := s.store.Get(edit.Sondage)
	responseText := fmt.Sprintf("Applied: %s\n", edit)
	if wasValidated {
		responseText += fmt.Sprintf("Sondage %s was validated and has been re-opened.\n", edit.Sondage)
	}
	responseText += "\n" + formatSondage(sd, s.store.Columns(), s.store.IsValidated(edit.Sondage))

	return mcp.NewToolResultText(responseText), nil
}

func editArgument(request mcp.CallToolRequest) (review.Edit, error) {
	var edit review.Edit

	name, err := request.RequireString("name")
	if err != nil {
		return edit, err
	}
	column, err := request.RequireString("column")
	if err != nil {
		return edit, err
	}
	opName, err := request.RequireString("op")
	if err != nil {
		return edit, err
	}
	op, err := review.ParseOp(opName)
	if err != nil {
		return edit, err
	}
	edit = review.Edit{Sondage: name, Column: column, Op: op}

	args := request.GetArguments()
	index, hasIndex, err := numberArgument(args, "index")
	if err != nil {
		return edit, err
	}
	if op != review.OpAppend && !hasIndex {
		return edit, fmt.Errorf("index is required for %s", op)
	}
	edit.Index = int(index)

	to, hasTo, err := numberArgument(args, "to")
	if err != nil {
		return edit, err
	}
	if op == review.OpMove && !hasTo {
		return edit, errors.New("to is required for move")
	}
	edit.To = int(to)

	if raw, ok := args["value"].(string); ok && strings.TrimSpace(raw) != "" {
		v, ok := sondage.ParseNumber(raw)
		if !ok {
			return edit, fmt.Errorf("value %q is not a number", raw)
		}
		edit.Value = &v
	} else if v, ok, err := numberArgument(args, "value"); err == nil && ok {
		edit.Value = &v
	}
	if op == review.OpSet && edit.Value == nil {
		return edit, errors.New("set needs a value; use null to blank a cell")
	}

	return edit, nil
}

func (s *Server) handleAccept(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Get(name); !ok {
		return mcp.NewToolResultError(unknownSondage(name, s.store.Names())), nil
	}
	if err := s.store.Validate(name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot validate %s: %v", name, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Sondage %s validated (export order: %s)",
		name, strings.Join(s.store.ValidatedNames(), ", "))), nil
}

func (s *Server) handleReopen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reopen(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Sondage %s re-opened for editing", name)), nil
}

func (s *Server) handleSaveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.pdfService.ResolvePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := review.FromStore(s.store, s.runID, s.source)
	if err := review.Save(resolved, session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session saved to %s (%d sondage(s), %d validated)",
		resolved, len(session.Sondages), len(session.Validated))), nil
}

func (s *Server) handleLoadSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.pdfService.ResolvePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := review.Load(resolved)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	store, err := session.Restore(s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store = store
	s.runID = session.RunID
	s.source = session.Source

	return mcp.NewToolResultText(fmt.Sprintf("Session loaded from %s: %d sondage(s), validated: %s",
		resolved, store.Len(), listOrNone(store.ValidatedNames()))), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output := config.DefaultOutput
	if o, ok := request.GetArguments()["output"].(string); ok && o != "" {
		output = o
	}
	resolved, err := s.pdfService.ResolvePath(output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writer := export.NewWriter(export.DefaultColumns, s.logger)
	if err := writer.Store(resolved, s.store); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			return mcp.NewToolResultError(fmt.Sprintf("%v; pending: %s", err, listOrNone(s.store.Pending()))), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Exported %d sondage(s) to %s: %s",
		len(s.store.ValidatedNames()), resolved, strings.Join(s.store.ValidatedNames(), ", "))
	if pending := s.store.Pending(); len(pending) > 0 {
		responseText += fmt.Sprintf("\nNot exported (not validated): %s", strings.Join(pending, ", "))
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

// numberArgument reads an optional numeric argument. Clients send JSON
// numbers; numeric strings are accepted as well.
func numberArgument(args map[string]interface{}, key string) (float64, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		if f, ok := sondage.ParseNumber(v); ok {
			return f, true, nil
		}
		return 0, false, fmt.Errorf("%s: %q is not a number", key, v)
	default:
		return 0, false, fmt.Errorf("%s: expected a number, got %T", key, raw)
	}
}

func unknownSondage(name string, known []string) string {
	return fmt.Sprintf("unknown sondage: %s (known: %s)", name, listOrNone(known))
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Run starts the MCP server on stdio
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server",
		"mode", s.config.Mode,
		"pdf_directory", s.config.PDFDirectory,
		"tools", len(descriptions.GetAllToolNames()))

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
