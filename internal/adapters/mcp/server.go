// Package mcpadapter exposes the comparison use cases as Model Context
// Protocol tools.
package mcpadapter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/latexsim/latex-similarity/internal/core/domain"
	"github.com/latexsim/latex-similarity/internal/core/ports"
)

const (
	ToolCompare    = "compare_latex"
	ToolNormalize  = "normalize_latex"
	ToolOperations = "list_operations"
)

type handlers struct {
	comparer ports.LatexComparer
	catalog  ports.OperationCatalog
	logger   *slog.Logger
}

func NewServer(
	name, version string,
	comparer ports.LatexComparer,
	catalog ports.OperationCatalog,
	logger *slog.Logger,
) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{comparer: comparer, catalog: catalog, logger: logger}

	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(mcp.NewTool(ToolCompare,
		mcp.WithDescription("Structural similarity of two LaTeX formulas as a two-decimal percentage."),
		mcp.WithString("latex1", mcp.Required(), mcp.Description("First formula")),
		mcp.WithString("latex2", mcp.Required(), mcp.Description("Second formula")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.compare)
	s.AddTool(mcp.NewTool(ToolNormalize,
		mcp.WithDescription("Symbolic tree and canonical tokens of a LaTeX formula."),
		mcp.WithString("latex", mcp.Required(), mcp.Description("Formula to normalise")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.normalize)
	s.AddTool(mcp.NewTool(ToolOperations,
		mcp.WithDescription("LaTeX commands the comparison understands."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.operations)
	return s
}

func (h *handlers) compare(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.comparer.Compare(ctx, req.GetString("latex1", ""), req.GetString("latex2", ""))
	if err != nil {
		return h.toolError(ToolCompare, err, "Missing LaTeX strings"), nil
	}
	return mcp.NewToolResultStructured(res, res.Similarity), nil
}

func (h *handlers) normalize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.comparer.Normalize(ctx, req.GetString("latex", ""))
	if err != nil {
		return h.toolError(ToolNormalize, err, "Missing LaTeX string"), nil
	}
	return mcp.NewToolResultStructured(res, res.Canonical+"\n"+res.Tokens.String()), nil
}

func (h *handlers) operations(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ops := h.catalog.Operations()
	return mcp.NewToolResultStructured(map[string][]string{"latex_operations": ops}, strings.Join(ops, ", ")), nil
}

// toolError reports failures in-band so that the calling model can see them.
func (h *handlers) toolError(tool string, err error, missingInput string) *mcp.CallToolResult {
	switch {
	case domain.IsKind(err, domain.ErrMissingInput):
		return mcp.NewToolResultError(missingInput)
	case domain.IsParseFailure(err):
		return mcp.NewToolResultError(err.Error())
	case domain.IsKind(err, domain.ErrTemporary):
		return mcp.NewToolResultError("temporarily unavailable, retry later")
	default:
		h.logger.Error("mcp_tool_failed", "tool", tool, "error", err)
		return mcp.NewToolResultError("internal error")
	}
}
