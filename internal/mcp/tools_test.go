// ABOUTME: Tests for catalog, mirror, and prefs MCP tool handlers.
// ABOUTME: Calls handlers directly with raw JSON arguments and inspects text results.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/mirrorview/internal/catalog"
	"github.com/2389-research/mirrorview/internal/logging"
	"github.com/2389-research/mirrorview/internal/mirror"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/prefs"
	"github.com/2389-research/mirrorview/internal/storage"
)

type handler func(context.Context, *gomcp.CallToolRequest) (*gomcp.CallToolResult, error)

func callTool(t *testing.T, h handler, name string, args any) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}
	req := &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      name,
			Arguments: argsJSON,
		},
	}
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("%s handler error: %v", name, err)
	}
	return result
}

func getTextContent(result *gomcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*gomcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func makeServer(t *testing.T, cat *staticCatalog) *Server {
	t.Helper()
	s, err := NewServer(cat, testProber(), mirror.NewRanker([]string{"pref.net"}), "test",
		WithPrefs(prefs.New(storage.NewMemoryStore())), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return s
}

func sampleCatalog(n int) models.Catalog {
	cat := make(models.Catalog, 0, n)
	for i := 0; i < n; i++ {
		cat = append(cat, models.Post{
			Title: fmt.Sprintf("Adobe Tool %02d", i),
			Link:  fmt.Sprintf("https://w.org/%d", i),
			Links: []string{fmt.Sprintf("https://x.com/%d", i), fmt.Sprintf("https://pref.net/%d", i)},
		})
	}
	return cat
}

func TestListPostsPaginates(t *testing.T) {
	s := makeServer(t, &staticCatalog{data: sampleCatalog(60)})

	result := callTool(t, s.handleListPosts, "list_posts", map[string]any{})
	if result.IsError {
		t.Fatalf("unexpected error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "Showing 50 of 60 posts") {
		t.Errorf("expected first page header, got: %s", text)
	}
	if !strings.Contains(text, "10 more") {
		t.Errorf("expected remaining count, got: %s", text)
	}

	result = callTool(t, s.handleListPosts, "list_posts", map[string]any{"page": 2})
	if !strings.Contains(getTextContent(result), "Showing 60 of 60 posts") {
		t.Errorf("expected all posts on page 2, got: %s", getTextContent(result))
	}
}

func TestListPostsSearchAndSort(t *testing.T) {
	s := makeServer(t, &staticCatalog{data: sampleCatalog(20)})

	result := callTool(t, s.handleListPosts, "list_posts", map[string]any{"search": "tool 07"})
	text := getTextContent(result)
	if !strings.Contains(text, "Adobe Tool 07") || strings.Contains(text, "Adobe Tool 08") {
		t.Errorf("unexpected search result: %s", text)
	}

	result = callTool(t, s.handleListPosts, "list_posts", map[string]any{"sort": "name-desc", "page_size": 1})
	if !strings.Contains(getTextContent(result), "Adobe Tool 19") {
		t.Errorf("expected last title first, got: %s", getTextContent(result))
	}

	result = callTool(t, s.handleListPosts, "list_posts", map[string]any{"sort": "date"})
	if !result.IsError {
		t.Error("expected error for unknown sort")
	}

	result = callTool(t, s.handleListPosts, "list_posts", map[string]any{"filter": "microsoft"})
	if getTextContent(result) != "No matching posts found." {
		t.Errorf("expected empty result, got: %s", getTextContent(result))
	}
}

func TestListPostsCatalogError(t *testing.T) {
	s := makeServer(t, &staticCatalog{err: &catalog.FetchError{Kind: catalog.KindTimeout}})
	result := callTool(t, s.handleListPosts, "list_posts", map[string]any{})
	if !result.IsError || !strings.Contains(getTextContent(result), "timed out") {
		t.Errorf("expected timeout error, got: %s", getTextContent(result))
	}
}

func TestRefreshCatalog(t *testing.T) {
	cat := &staticCatalog{data: sampleCatalog(3)}
	s := makeServer(t, cat)

	result := callTool(t, s.handleRefreshCatalog, "refresh_catalog", map[string]any{})
	if getTextContent(result) != "Catalog refreshed: 3 posts" {
		t.Errorf("unexpected result: %s", getTextContent(result))
	}

	cat.refreshErr = &catalog.FetchError{Kind: catalog.KindHTTP, StatusCode: 500}
	result = callTool(t, s.handleRefreshCatalog, "refresh_catalog", map[string]any{})
	if !result.IsError || !strings.Contains(getTextContent(result), "cached catalog kept") {
		t.Errorf("expected refresh failure, got: %s", getTextContent(result))
	}
	if cat.refreshes != 2 {
		t.Errorf("refreshes = %d, want 2", cat.refreshes)
	}
}

func TestBestMirrorStaticFallback(t *testing.T) {
	s := makeServer(t, &staticCatalog{data: sampleCatalog(3)})

	result := callTool(t, s.handleBestMirror, "best_mirror", map[string]any{"post": "Tool 01"})
	text := getTextContent(result)
	if !strings.HasPrefix(text, "https://pref.net/1") {
		t.Errorf("expected preferred mirror, got: %s", text)
	}

	recent, err := s.prefs.Recent(context.Background())
	if err != nil || len(recent) != 1 || recent[0].Link != "https://w.org/1" {
		t.Errorf("expected post recorded as recent, got %v (%v)", recent, err)
	}
}

func TestBestMirrorErrors(t *testing.T) {
	cat := &staticCatalog{data: models.Catalog{{Title: "Bare", Link: "https://w.org/bare", Links: []string{}}}}
	s := makeServer(t, cat)

	if r := callTool(t, s.handleBestMirror, "best_mirror", map[string]any{}); !r.IsError {
		t.Error("expected error without post")
	}
	if r := callTool(t, s.handleBestMirror, "best_mirror", map[string]any{"post": "missing"}); !r.IsError {
		t.Error("expected error for unknown post")
	}
	if r := callTool(t, s.handleBestMirror, "best_mirror", map[string]any{"post": "bare"}); !r.IsError {
		t.Error("expected error for post without mirrors")
	}
}

func TestTestMirrorsProbesEveryLink(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL + "/file"
	down.Close()

	cat := &staticCatalog{data: models.Catalog{{
		Title: "Adobe Audition",
		Link:  "https://w.org/au",
		Links: []string{downURL, up.URL + "/file"},
	}}}
	s := makeServer(t, cat)

	result := callTool(t, s.handleTestMirrors, "test_mirrors", map[string]any{"post": "https://w.org/au"})
	text := getTextContent(result)
	if result.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "1 of 2 mirrors online") {
		t.Errorf("expected online count, got: %s", text)
	}
	if !strings.Contains(text, "offline "+downURL) {
		t.Errorf("expected offline line, got: %s", text)
	}
	if !strings.Contains(text, "Best: "+up.URL+"/file") {
		t.Errorf("expected reachable mirror as best, got: %s", text)
	}
	if s.prober.Testing() {
		t.Error("testing flag should clear after the batch")
	}

	// best_mirror now uses the recorded results
	result = callTool(t, s.handleBestMirror, "best_mirror", map[string]any{"post": "audition"})
	if !strings.HasPrefix(getTextContent(result), up.URL+"/file") {
		t.Errorf("expected tested mirror, got: %s", getTextContent(result))
	}
}

func TestFavoritesTools(t *testing.T) {
	s := makeServer(t, &staticCatalog{data: sampleCatalog(3)})

	result := callTool(t, s.handleListFavorites, "list_favorites", map[string]any{})
	if getTextContent(result) != "No favorites yet." {
		t.Errorf("unexpected result: %s", getTextContent(result))
	}

	result = callTool(t, s.handleToggleFavorite, "toggle_favorite", map[string]any{"post": "Tool 02"})
	if !strings.HasPrefix(getTextContent(result), "Added to favorites") {
		t.Errorf("unexpected result: %s", getTextContent(result))
	}

	result = callTool(t, s.handleListFavorites, "list_favorites", map[string]any{})
	if !strings.Contains(getTextContent(result), "Adobe Tool 02") {
		t.Errorf("expected favorite listed, got: %s", getTextContent(result))
	}

	result = callTool(t, s.handleToggleFavorite, "toggle_favorite", map[string]any{"post": "https://w.org/2"})
	if !strings.HasPrefix(getTextContent(result), "Removed from favorites") {
		t.Errorf("unexpected result: %s", getTextContent(result))
	}

	result = callTool(t, s.handleRecentPosts, "recent_posts", map[string]any{})
	if getTextContent(result) != "No recently viewed posts." {
		t.Errorf("unexpected result: %s", getTextContent(result))
	}
}
