// ABOUTME: End-to-end tests for the mirrorview CLI commands.
// ABOUTME: Runs the root command against an httptest catalog with temp XDG dirs.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/2389-research/mirrorview/internal/models"
)

type cliFixture struct {
	catalogHits atomic.Int32
	mirrors     *httptest.Server
	catalog     *httptest.Server
}

func setupCLITest(t *testing.T) *cliFixture {
	t.Helper()
	f := &cliFixture{}

	f.mirrors = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(f.mirrors.Close)

	posts := []map[string]any{
		{"title": "Adobe Photoshop 2024", "link": "https://w.example/ps", "links": []string{f.mirrors.URL + "/ps1", "https://pb.wtf.invalid/ps"}},
		{"title": "Microsoft Office LTSC", "link": "https://w.example/office", "links": []string{"https://a.example/office"}},
		{"title": "Autodesk Maya", "link": "https://w.example/maya", "links": []string{}},
	}
	body, err := json.Marshal(posts)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	f.catalog = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.catalogHits.Add(1)
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.catalog.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("MIRRORVIEW_CATALOG_URL", f.catalog.URL)
	t.Setenv("MIRRORVIEW_CACHE_BACKEND", "file")

	prevCopy, prevOpen := copyToClipboard, openInBrowser
	t.Cleanup(func() {
		copyToClipboard, openInBrowser = prevCopy, prevOpen
	})
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagVerbose, flagQuiet, flagColor = false, false, "never"
	listFilter, listSearch, listSort, listPage, listPageSize, listJSON = "", "", "", 1, 0, false
	bestTest, bestCopy, bestOpen = false, false, false
	recentClear = false
	mcpMetricsAddr = ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(append([]string{"--color", "never"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "mirrorview dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestList_Default(t *testing.T) {
	setupCLITest(t)

	out, err := run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	ps := strings.Index(out, "Adobe Photoshop 2024")
	maya := strings.Index(out, "Autodesk Maya")
	office := strings.Index(out, "Microsoft Office LTSC")
	if ps < 0 || maya < 0 || office < 0 {
		t.Fatalf("expected all posts, got:\n%s", out)
	}
	if ps >= maya || maya >= office {
		t.Errorf("expected name-asc order, got:\n%s", out)
	}
	if !strings.Contains(out, "Showing 1-3 of 3") {
		t.Errorf("expected counter, got:\n%s", out)
	}
}

func TestList_FilterSortJSON(t *testing.T) {
	setupCLITest(t)

	out, err := run(t, "list", "--filter", "o", "--sort", "name-desc", "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var posts []models.Post
	if err := json.Unmarshal([]byte(out), &posts); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	// "o" matches Photoshop, Office and Autodesk
	if len(posts) != 3 || posts[0].Title != "Microsoft Office LTSC" {
		t.Errorf("unexpected posts %+v", posts)
	}
}

func TestList_Paging(t *testing.T) {
	setupCLITest(t)

	out, err := run(t, "list", "--page-size", "2")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Contains(out, "Microsoft Office") {
		t.Errorf("page 1 should stop at 2 posts, got:\n%s", out)
	}
	if !strings.Contains(out, "1 more; use --page 2") {
		t.Errorf("expected more hint, got:\n%s", out)
	}

	out, err = run(t, "list", "--page-size", "2", "--page", "2")
	if err != nil {
		t.Fatalf("list page 2 failed: %v", err)
	}
	if !strings.Contains(out, "Microsoft Office") || strings.Contains(out, "Autodesk Maya") {
		t.Errorf("page 2 should hold only the last post, got:\n%s", out)
	}
}

func TestList_UnknownSort(t *testing.T) {
	setupCLITest(t)

	if _, err := run(t, "list", "--sort", "random"); err == nil {
		t.Fatal("expected error for unknown sort key")
	}
}

func TestCatalogCachedAcrossRuns(t *testing.T) {
	f := setupCLITest(t)

	if _, err := run(t, "list"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, err := run(t, "list"); err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if got := f.catalogHits.Load(); got != 1 {
		t.Errorf("catalog fetched %d times, want 1 (durable cache)", got)
	}

	if _, err := run(t, "refresh"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := f.catalogHits.Load(); got != 2 {
		t.Errorf("refresh should bypass the cache, hits = %d", got)
	}
}

func TestCacheStatusAndClear(t *testing.T) {
	setupCLITest(t)

	out, err := run(t, "cache", "status")
	if err != nil {
		t.Fatalf("cache status failed: %v", err)
	}
	if !strings.Contains(out, "Cached:   no") {
		t.Errorf("expected empty cache, got:\n%s", out)
	}

	if _, err := run(t, "refresh"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	out, _ = run(t, "cache", "status")
	if !strings.Contains(out, "Cached:   3 posts") || !strings.Contains(out, "State:    fresh") {
		t.Errorf("expected fresh record, got:\n%s", out)
	}

	out, err = run(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	if !strings.Contains(out, "[OK] Catalog cache cleared") {
		t.Errorf("unexpected clear output %q", out)
	}
	out, _ = run(t, "cache", "status")
	if !strings.Contains(out, "Cached:   no") {
		t.Errorf("expected cleared cache, got:\n%s", out)
	}
}

func TestRefreshFailure(t *testing.T) {
	f := setupCLITest(t)
	f.catalog.Close()

	if _, err := run(t, "refresh"); err == nil {
		t.Fatal("expected refresh to fail when the catalog is unreachable")
	}
}

func TestMirrorsBest_StaticPreference(t *testing.T) {
	setupCLITest(t)

	out, err := run(t, "mirrors", "best", "photoshop")
	if err != nil {
		t.Fatalf("mirrors best failed: %v", err)
	}
	if strings.TrimSpace(out) != "https://pb.wtf.invalid/ps" {
		t.Errorf("best = %q, want preferred provider", out)
	}

	out, _ = run(t, "recent")
	if !strings.Contains(out, "Adobe Photoshop 2024") {
		t.Errorf("expected post in recent, got:\n%s", out)
	}
}

func TestMirrorsBest_CopyAndOpen(t *testing.T) {
	f := setupCLITest(t)
	var copied, opened string
	copyToClipboard = func(s string) error { copied = s; return nil }
	openInBrowser = func(s string) error { opened = s; return nil }

	out, err := run(t, "mirrors", "best", "photoshop", "--test", "--copy", "--open")
	if err != nil {
		t.Fatalf("mirrors best failed: %v", err)
	}
	// the preferred mirror cannot resolve, so the reachable one wins
	want := f.mirrors.URL + "/ps1"
	if copied != want || opened != want {
		t.Errorf("copied=%q opened=%q, want %q", copied, opened, want)
	}
	if !strings.Contains(out, "[OK] Link copied") {
		t.Errorf("expected copy notification, got:\n%s", out)
	}
}

func TestMirrorsBest_ActionFailure(t *testing.T) {
	setupCLITest(t)
	copyToClipboard = func(string) error { return fmt.Errorf("no clipboard") }

	_, err := run(t, "mirrors", "best", "photoshop", "--copy")
	if err == nil || !strings.Contains(err.Error(), "no clipboard") {
		t.Fatalf("expected clipboard error, got %v", err)
	}
}

func TestMirrorsBest_NoMirrors(t *testing.T) {
	setupCLITest(t)

	if _, err := run(t, "mirrors", "best", "maya"); err == nil {
		t.Fatal("expected error for post without mirrors")
	}
	if _, err := run(t, "mirrors", "best", "nothing matches"); err == nil {
		t.Fatal("expected error for unknown post")
	}
}

func TestMirrorsTest(t *testing.T) {
	f := setupCLITest(t)

	out, err := run(t, "mirrors", "test", "https://w.example/ps")
	if err != nil {
		t.Fatalf("mirrors test failed: %v", err)
	}
	if !strings.Contains(out, "[fast]") {
		t.Errorf("expected fast badge, got:\n%s", out)
	}
	if !strings.Contains(out, "Best: "+f.mirrors.URL+"/ps1") {
		t.Errorf("expected best line, got:\n%s", out)
	}
	if !strings.Contains(out, "Speed test complete") {
		t.Errorf("expected test notification, got:\n%s", out)
	}
}

func TestFavorites(t *testing.T) {
	setupCLITest(t)

	out, err := run(t, "favorites")
	if err != nil {
		t.Fatalf("favorites failed: %v", err)
	}
	if !strings.Contains(out, "No favorites yet") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = run(t, "favorites", "toggle", "office")
	if err != nil {
		t.Fatalf("favorites toggle failed: %v", err)
	}
	if !strings.Contains(out, "Added to favorites") {
		t.Errorf("unexpected toggle output %q", out)
	}

	out, _ = run(t, "favorites")
	if !strings.Contains(out, "Microsoft Office LTSC") {
		t.Errorf("expected favorite listed, got:\n%s", out)
	}

	out, _ = run(t, "favorites", "toggle", "office")
	if !strings.Contains(out, "Removed from favorites") {
		t.Errorf("unexpected toggle output %q", out)
	}
}

func TestRecentClear(t *testing.T) {
	setupCLITest(t)

	if _, err := run(t, "mirrors", "best", "office"); err != nil {
		t.Fatalf("mirrors best failed: %v", err)
	}
	if _, err := run(t, "recent", "--clear"); err != nil {
		t.Fatalf("recent --clear failed: %v", err)
	}
	out, _ := run(t, "recent")
	if !strings.Contains(out, "No recently viewed posts") {
		t.Errorf("expected empty recents, got:\n%s", out)
	}
}
