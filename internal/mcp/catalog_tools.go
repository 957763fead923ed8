// ABOUTME: MCP tool implementations for catalog browsing.
// ABOUTME: Registers list_posts and refresh_catalog.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/view"
)

func (s *Server) registerCatalogTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_posts",
		Description: "List catalog posts with optional category filter, search text, and sort order. Results are paginated.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"filter": {"type": "string", "description": "Category filter: all, adobe, autodesk, microsoft, or any title substring (default all)"},
				"search": {"type": "string", "description": "Case-insensitive match against titles and mirror URLs"},
				"sort": {"type": "string", "enum": ["name-asc", "name-desc", "mirrors-desc"], "description": "Sort order (default name-asc)"},
				"page": {"type": "number", "description": "Number of pages to include, starting at 1 (default 1)"},
				"page_size": {"type": "number", "description": "Posts per page (default 50)"}
			}
		}`),
	}, s.handleListPosts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "refresh_catalog",
		Description: "Fetch the catalog from its source now, ignoring the cache lifetime. The cached copy is kept if the fetch fails.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleRefreshCatalog)
}

func (s *Server) handleListPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Filter   string `json:"filter"`
		Search   string `json:"search"`
		Sort     string `json:"sort"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Filter == "" {
		args.Filter = view.FilterAll
	}
	if args.Sort == "" {
		args.Sort = view.SortNameAsc
	}
	if !view.ValidSort(args.Sort) {
		return toolError("unknown sort %q (valid: %s)", args.Sort, strings.Join(view.SortKeys, ", ")), nil
	}

	cat, err := s.catalog.Get(ctx)
	if err != nil {
		return toolError("failed to load catalog: %v", err), nil
	}

	derived := view.Derive(cat, view.Query{Filter: args.Filter, Search: args.Search, Sort: args.Sort})
	visible, hasMore := view.Paginate(derived, args.Page, args.PageSize)

	if len(visible) == 0 {
		return textResult("No matching posts found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Showing %d of %d posts\n\n", len(visible), len(derived))
	for _, post := range visible {
		fmt.Fprintf(&sb, "- %s [%s] (%d mirrors)\n  %s\n", post.Title, models.Category(post.Title), len(post.Links), post.Link)
	}
	if hasMore {
		fmt.Fprintf(&sb, "\n%d more; request a higher page to see them.\n", len(derived)-len(visible))
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleRefreshCatalog(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	cat, err := s.catalog.Refresh(ctx)
	if err != nil {
		return toolError("refresh failed, cached catalog kept: %v", err), nil
	}
	return textResult(fmt.Sprintf("Catalog refreshed: %d posts", len(cat))), nil
}
