// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Tether's matcher and linker via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tether/internal/apperr"
	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/models"
	"github.com/starford/tether/internal/workspace"
)

const rulesURI = "tether://matching-rules"

// Server wraps the MCP server with Tether tools.
type Server struct {
	mcp *server.MCPServer
	ws  *workspace.Service
}

// New creates a new MCP server with all Tether tools registered.
func New(ws *workspace.Service, version string) *Server {
	s := &Server{ws: ws}

	s.mcp = server.NewMCPServer(
		"Tether",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("lookup_pages",
		mcp.WithDescription("Rank vault pages for a query, best match first. "+
			"See the "+rulesURI+" resource for the ranking rules."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look up, e.g. a word from a note")),
	), s.lookupPages)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List every page that text can be linked to: notes and unresolved link targets."),
		mcp.WithString("kind",
			mcp.Description("Which pages to list"),
			mcp.Enum("all", "notes", "unresolved"),
			mcp.DefaultString("all")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("find_unlinked",
		mcp.WithDescription("Find text in a note that names another page but is not linked yet."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.findUnlinked)

	s.mcp.AddTool(mcp.NewTool("link_reference",
		mcp.WithDescription("Replace an unlinked reference found by find_unlinked with a [[wikilink]] "+
			"to its best-ranked page. The note is saved."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("The referenced text")),
		mcp.WithNumber("start", mcp.Required(), mcp.Min(0), mcp.Description("Byte offset where the text starts")),
		mcp.WithNumber("end", mcp.Required(), mcp.Min(0), mcp.Description("Byte offset where the text ends")),
	), s.linkReference)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified page name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name (note file name without .md)")),
	), s.getBacklinks)

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Matching Rules",
			mcp.WithResourceDescription("Where unlinked references are looked for and how candidate pages are ranked."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMatchingRules,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lookupPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.ws.RefreshCatalog(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pages := s.ws.Lookup(query)
	if len(pages) == 0 {
		return mcp.NewToolResultText("no matching pages"), nil
	}
	return jsonResult(pages)
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := req.GetString("kind", "all")
	c, err := s.ws.RefreshCatalog(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, p := range c.Pages() {
		unresolved := p.Path == catalog.UnresolvedPath
		if (kind == "notes" && unresolved) || (kind == "unresolved" && !unresolved) {
			continue
		}
		lines = append(lines, p.Name+"\t"+p.Path)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no pages"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

type unlinked struct {
	Keyword    string        `json:"keyword"`
	Start      int           `json:"start"`
	End        int           `json:"end"`
	Candidates []models.Page `json:"candidates"`
}

func (s *Server) findUnlinked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.ws.RefreshCatalog(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	marks, err := s.ws.Scan(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(marks) == 0 {
		return mcp.NewToolResultText("no unlinked references"), nil
	}
	out := make([]unlinked, 0, len(marks))
	for _, m := range marks {
		out = append(out, unlinked{
			Keyword:    m.Data.Keyword,
			Start:      m.Data.Start,
			End:        m.Data.End,
			Candidates: s.ws.Lookup(m.Data.Keyword),
		})
	}
	return jsonResult(out)
}

func (s *Server) linkReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keyword, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := req.RequireInt("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireInt("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.ws.RefreshCatalog(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.ws.Link(ctx, path, keyword, start, end)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	case errors.Is(err, apperr.ErrStaleMark):
		return mcp.NewToolResultError(fmt.Sprintf("%q is not at [%d,%d) in %s; run find_unlinked again", keyword, start, end, path)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Edit == nil {
		return mcp.NewToolResultText(fmt.Sprintf("no page matches %q", keyword)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked: %s [%d,%d) -> %s", path, start, end, res.Edit.Insert)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.ws.Backlinks(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) readMatchingRules(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     MatchingRules,
		},
	}, nil
}
