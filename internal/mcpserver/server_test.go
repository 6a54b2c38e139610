package mcpserver

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "raido-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return New(db), db
}

func seedLink(t *testing.T, db *store.DB, url string) int64 {
	t.Helper()
	id, err := db.InsertLink(models.ExtractedLink{
		URL:        url,
		Title:      "Seed " + url,
		SourceDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		SourceFile: "/notes/2025-03-15.md",
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_links":
		result, err = srv.searchLinks(ctx, req)
	case "get_link":
		result, err = srv.getLink(ctx, req)
	case "list_recent":
		result, err = srv.listRecent(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "links_by_tag":
		result, err = srv.linksByTag(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

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

func TestSearchLinks(t *testing.T) {
	srv, db := testServer(t)
	id := seedLink(t, db, "http://a.test/db")
	if err := db.UpdateFetchResult(id, models.StatusSuccess,
		"long text about database replication strategies", "Replication", ""); err != nil {
		t.Fatal(err)
	}
	seedLink(t, db, "http://b.test/other")

	r := callTool(t, srv, "search_links", map[string]interface{}{"query": "replication"})
	text := resultText(r)
	if !strings.Contains(text, "http://a.test/db") {
		t.Errorf("search result = %q", text)
	}
	if strings.Contains(text, "http://b.test/other") {
		t.Errorf("search returned unrelated link: %q", text)
	}
}

func TestGetLink(t *testing.T) {
	srv, db := testServer(t)
	id := seedLink(t, db, "http://a.test/one")

	r := callTool(t, srv, "get_link", map[string]interface{}{"id": strconv.FormatInt(id, 10)})
	if r.IsError {
		t.Fatalf("unexpected error: %q", resultText(r))
	}
	if !strings.Contains(resultText(r), "http://a.test/one") {
		t.Errorf("get result = %q", resultText(r))
	}

	r = callTool(t, srv, "get_link", map[string]interface{}{"id": "99999"})
	if !r.IsError {
		t.Error("expected error for missing link")
	}

	r = callTool(t, srv, "get_link", map[string]interface{}{"id": "abc"})
	if !r.IsError {
		t.Error("expected error for non-numeric id")
	}
}

func TestListRecent(t *testing.T) {
	srv, db := testServer(t)
	seedLink(t, db, "http://a.test/one")
	seedLink(t, db, "http://a.test/two")

	r := callTool(t, srv, "list_recent", map[string]interface{}{"limit": "1"})
	text := resultText(r)
	count := strings.Count(text, `"url"`)
	if count != 1 {
		t.Errorf("limit ignored, got %d links", count)
	}
}

func TestTagsTools(t *testing.T) {
	srv, db := testServer(t)
	id := seedLink(t, db, "http://a.test/one")
	if err := db.AddTag(id, models.Tag{Name: "go", Category: models.CategoryProgrammingLanguage}, 0.9, "llm"); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_tags", map[string]interface{}{})
	if !strings.Contains(resultText(r), `"go"`) {
		t.Errorf("tags = %q", resultText(r))
	}

	r = callTool(t, srv, "links_by_tag", map[string]interface{}{"tag": "go"})
	if !strings.Contains(resultText(r), "http://a.test/one") {
		t.Errorf("links by tag = %q", resultText(r))
	}

	r = callTool(t, srv, "links_by_tag", map[string]interface{}{"tag": "rust"})
	if resultText(r) != "no links found" {
		t.Errorf("empty tag result = %q", resultText(r))
	}
}
