// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Shelf tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
)

// RecordFormatURI is the resource URI of the record format contract.
const RecordFormatURI = "shelf://record-format"

// Server wraps the MCP server with Shelf tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *library.Service
	covers *covers.Store
}

// New creates a new MCP server with all Shelf tools registered. cs may be
// nil, in which case set_cover reports an error.
func New(svc *library.Service, cs *covers.Store) *Server {
	s := &Server{svc: svc, covers: cs}

	s.mcp = server.NewMCPServer(
		"Shelf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_works",
		mcp.WithDescription("List catalogued works, optionally filtered by type, status or title."),
		mcp.WithString("type", mcp.Description("ANIME, BOOK, MANGA or SERIES")),
		mcp.WithString("status", mcp.Description("READ, READING, WATCHING, WATCHED, IN_PLANS or ABANDONED")),
		mcp.WithString("query", mcp.Description("Case-insensitive match against title and other titles")),
		mcp.WithString("sort", mcp.Description("title (default), year or dateRead")),
	), s.listWorks)

	s.mcp.AddTool(mcp.NewTool("get_work",
		mcp.WithDescription("Read one work with all its fields."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Work id")),
	), s.getWork)

	s.mcp.AddTool(mcp.NewTool("save_work",
		mcp.WithDescription("Create or replace a work. Read the record format first via "+
			"the get_record_format tool or the "+RecordFormatURI+" resource."),
		mcp.WithString("work", mcp.Required(), mcp.Description("The work as a JSON object; omit id to create a new work")),
	), s.saveWork)

	s.mcp.AddTool(mcp.NewTool("delete_work",
		mcp.WithDescription("Delete a work. Deleting a missing work succeeds."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Work id")),
	), s.deleteWork)

	s.mcp.AddTool(mcp.NewTool("library_stats",
		mcp.WithDescription("Count works by type and status, and count notes."),
		mcp.WithString("type", mcp.Description("Restrict the status breakdown to one type")),
	), s.libraryStats)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, most recently updated first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note stamped with the current time."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note text")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("search_library",
		mcp.WithDescription("Full-text search through works and notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchLibrary)

	s.mcp.AddTool(mcp.NewTool("get_record_format",
		mcp.WithDescription("Returns the Shelf record format. "+
			"Call this before saving works to ensure correct field names and values."),
	), s.getRecordFormat)

	s.mcp.AddTool(mcp.NewTool("set_cover",
		mcp.WithDescription("Download an image from an http(s) URL or decode a base64 data URI "+
			"and make it the cover of a work."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Work id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL or data:image/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional file name for the stored image")),
	), s.setCover)

	s.mcp.AddResource(
		mcp.NewResource(RecordFormatURI, "Record Format",
			mcp.WithResourceDescription("Plain-text format of work and note records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listWorks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f library.Filter
	if raw := req.GetString("type", ""); raw != "" {
		t, ok := models.ParseWorkType(raw)
		if !ok {
			return mcp.NewToolResultError("unknown type: " + raw), nil
		}
		f.Type = t
	}
	if raw := req.GetString("status", ""); raw != "" {
		st, ok := models.ParseWorkStatus(raw)
		if !ok {
			return mcp.NewToolResultError("unknown status: " + raw), nil
		}
		f.Status = st
	}
	f.Query = req.GetString("query", "")

	works, err := s.svc.ListWorks(ctx, f, req.GetString("sort", library.SortTitle))
	if err != nil {
		return errorResult(err), nil
	}
	if works == nil {
		works = []models.Work{}
	}
	return jsonResult(works), nil
}

func (s *Server) getWork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetWork(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(d), nil
}

func (s *Server) saveWork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("work")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var w models.Work
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return mcp.NewToolResultError("invalid work JSON: " + err.Error()), nil
	}
	d, created, err := s.svc.SaveWork(ctx, w)
	if err != nil {
		return errorResult(err), nil
	}
	if created {
		return mcp.NewToolResultText("created: " + d.ID), nil
	}
	return mcp.NewToolResultText("updated: " + d.ID), nil
}

func (s *Server) deleteWork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteWork(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func (s *Server) libraryStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var typeFilter models.WorkType
	if raw := req.GetString("type", ""); raw != "" {
		t, ok := models.ParseWorkType(raw)
		if !ok {
			return mcp.NewToolResultError("unknown type: " + raw), nil
		}
		typeFilter = t
	}
	st, err := s.svc.Stats(ctx, typeFilter)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(st), nil
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.ListNotes(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.ID+"\t"+n.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(d), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.CreateNote(ctx, title, req.GetString("content", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("created: " + d.ID), nil
}

func (s *Server) searchLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return errorResult(err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return jsonResult(results), nil
}

func (s *Server) setCover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.covers == nil {
		return mcp.NewToolResultError("covers are not configured"), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.GetWork(ctx, id); err != nil {
		return errorResult(err), nil
	}

	cover, err := s.covers.SaveFrom(ctx, src, req.GetString("filename", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.SetCover(ctx, id, cover); err != nil {
		_ = s.covers.Delete(cover.Filename)
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cover set: %s (%d bytes)", cover.URL, cover.Size)), nil
}

func (s *Server) getRecordFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RecordFormatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
