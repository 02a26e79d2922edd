package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/testutil"
)

func testServer(t *testing.T) (*Server, *library.Service) {
	t.Helper()
	lib := testutil.NewLibrary(t)
	return New(lib.Service, lib.Covers), lib.Service
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_works":        srv.listWorks,
		"get_work":          srv.getWork,
		"save_work":         srv.saveWork,
		"delete_work":       srv.deleteWork,
		"library_stats":     srv.libraryStats,
		"list_notes":        srv.listNotes,
		"read_note":         srv.readNote,
		"create_note":       srv.createNote,
		"search_library":    srv.searchLibrary,
		"get_record_format": srv.getRecordFormat,
		"set_cover":         srv.setCover,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndGetWork(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "save_work", map[string]any{
		"work": `{"id":"w1","title":"Attack on Titan","type":"ANIME","status":"WATCHED","episodes":25}`,
	})
	if text := resultText(r); text != "created: w1" {
		t.Errorf("save result = %q", text)
	}

	r = callTool(t, srv, "save_work", map[string]any{
		"work": `{"id":"w1","title":"Attack on Titan","type":"ANIME","status":"WATCHING"}`,
	})
	if text := resultText(r); text != "updated: w1" {
		t.Errorf("second save result = %q", text)
	}

	r = callTool(t, srv, "get_work", map[string]any{"id": "w1"})
	var got library.WorkDetail
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v (%q)", err, resultText(r))
	}
	if got.Status != models.StatusWatching || got.Episodes != nil {
		t.Errorf("work = %+v", got.Work)
	}
}

func TestSaveWork_Invalid(t *testing.T) {
	srv, _ := testServer(t)
	for _, raw := range []string{`{not json`, `{"title":"x","type":"GAME","status":"READ"}`} {
		if r := callTool(t, srv, "save_work", map[string]any{"work": raw}); !r.IsError {
			t.Errorf("save_work(%s) should fail", raw)
		}
	}
	if r := callTool(t, srv, "save_work", map[string]any{}); !r.IsError {
		t.Error("missing work argument should fail")
	}
}

func TestListWorksAndStats(t *testing.T) {
	srv, _ := testServer(t)
	for _, raw := range []string{
		`{"title":"Dune","type":"BOOK","status":"READ"}`,
		`{"title":"Akira","type":"MANGA","status":"READING"}`,
	} {
		callTool(t, srv, "save_work", map[string]any{"work": raw})
	}

	r := callTool(t, srv, "list_works", map[string]any{"type": "MANGA"})
	var works []models.Work
	_ = json.Unmarshal([]byte(resultText(r)), &works)
	if len(works) != 1 || works[0].Title != "Akira" {
		t.Errorf("works = %+v", works)
	}
	if r := callTool(t, srv, "list_works", map[string]any{"status": "DONE"}); !r.IsError {
		t.Error("unknown status should fail")
	}

	r = callTool(t, srv, "library_stats", map[string]any{})
	var st library.Stats
	_ = json.Unmarshal([]byte(resultText(r)), &st)
	if st.Total != 2 || st.Active != 1 || st.Completed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDeleteWork(t *testing.T) {
	srv, svc := testServer(t)
	callTool(t, srv, "save_work", map[string]any{"work": `{"id":"gone","title":"x","type":"BOOK","status":"READ"}`})

	r := callTool(t, srv, "delete_work", map[string]any{"id": "gone"})
	if text := resultText(r); text != "deleted: gone" {
		t.Errorf("delete result = %q", text)
	}
	if _, err := svc.GetWork(context.Background(), "gone"); err == nil {
		t.Error("work still readable after delete")
	}
	if r := callTool(t, srv, "get_work", map[string]any{"id": "gone"}); !r.IsError {
		t.Error("expected error for missing work")
	}
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{"title": "Trip", "content": "Packed bags"})
	text := resultText(r)
	id := strings.TrimPrefix(text, "created: ")
	if id == text || id == "" {
		t.Fatalf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]any{"id": id})
	var n library.NoteDetail
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatal(err)
	}
	if n.Title != "Trip" || n.Content != "Packed bags" {
		t.Errorf("note = %+v", n.Note)
	}

	r = callTool(t, srv, "list_notes", map[string]any{})
	if text := resultText(r); text != id+"\tTrip" {
		t.Errorf("list = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "read_note", map[string]any{"id": "nope"}); !r.IsError {
		t.Error("expected error for missing note")
	}
	if r := callTool(t, srv, "create_note", map[string]any{"title": "  "}); !r.IsError {
		t.Error("expected error for blank title")
	}
}

func TestSearchLibrary(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"title": "log", "content": "uniquetoken here"})

	r := callTool(t, srv, "search_library", map[string]any{"query": "uniquetoken"})
	var results []index.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &results); err != nil {
		t.Fatalf("decode: %v (%q)", err, resultText(r))
	}
	if len(results) != 1 || results[0].Collection != index.Notes {
		t.Errorf("results = %+v", results)
	}

	r = callTool(t, srv, "search_library", map[string]any{"query": "absent"})
	if text := resultText(r); text != "no matches" {
		t.Errorf("empty search = %q", text)
	}
}

func TestSetCover(t *testing.T) {
	srv, svc := testServer(t)
	callTool(t, srv, "save_work", map[string]any{"work": `{"id":"w1","title":"x","type":"BOOK","status":"READ"}`})

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	r := callTool(t, srv, "set_cover", map[string]any{"id": "w1", "url": uri, "filename": "x.png"})
	if r.IsError {
		t.Fatalf("set_cover: %s", resultText(r))
	}
	d, err := svc.GetWork(context.Background(), "w1")
	if err != nil {
		t.Fatal(err)
	}
	if d.CoverPath == nil || filepath.Base(*d.CoverPath) != "x.png" {
		t.Errorf("coverPath = %v", d.CoverPath)
	}

	if r := callTool(t, srv, "set_cover", map[string]any{"id": "missing", "url": uri}); !r.IsError {
		t.Error("expected error for missing work")
	}
	if r := callTool(t, srv, "set_cover", map[string]any{"id": "w1", "url": "http://169.254.169.254/latest"}); !r.IsError {
		t.Error("expected error for blocked host")
	}
}

func TestRecordFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_record_format", map[string]any{})
	if text := resultText(r); !strings.Contains(text, "status: WATCHED") {
		t.Errorf("contract missing work example")
	}

	contents, err := srv.readRecordFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != RecordFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
