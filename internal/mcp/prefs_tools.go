// ABOUTME: MCP tool implementations for saved favorites and recent posts.
// ABOUTME: Registers list_favorites, toggle_favorite, and recent_posts.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/mirrorview/internal/models"
)

func (s *Server) registerPrefsTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_favorites",
		Description: "List favorite posts that are still in the catalog.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListFavorites)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "toggle_favorite",
		Description: "Add a post to favorites, or remove it if it is already a favorite.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"post": {"type": "string", "description": "Post link, or part of its title"}
			},
			"required": ["post"]
		}`),
	}, s.handleToggleFavorite)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "recent_posts",
		Description: "List recently viewed posts, newest first.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleRecentPosts)
}

func (s *Server) handleListFavorites(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	cat, err := s.catalog.Get(ctx)
	if err != nil {
		return toolError("failed to load catalog: %v", err), nil
	}
	posts, err := s.prefs.FavoritePosts(ctx, cat)
	if err != nil {
		return toolError("failed to read favorites: %v", err), nil
	}
	if len(posts) == 0 {
		return textResult("No favorites yet."), nil
	}
	return textResult(formatPosts(posts)), nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Post string `json:"post"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	post, errResult := s.findPost(ctx, args.Post)
	if errResult != nil {
		return errResult, nil
	}
	on, err := s.prefs.ToggleFavorite(ctx, post.Link)
	if err != nil {
		return toolError("failed to update favorites: %v", err), nil
	}
	if on {
		return textResult(fmt.Sprintf("Added to favorites: %s", post.Title)), nil
	}
	return textResult(fmt.Sprintf("Removed from favorites: %s", post.Title)), nil
}

func (s *Server) handleRecentPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	posts, err := s.prefs.Recent(ctx)
	if err != nil {
		return toolError("failed to read recent posts: %v", err), nil
	}
	if len(posts) == 0 {
		return textResult("No recently viewed posts."), nil
	}
	return textResult(formatPosts(posts)), nil
}

func formatPosts(posts []models.Post) string {
	var sb strings.Builder
	for _, post := range posts {
		fmt.Fprintf(&sb, "- %s (%d mirrors)\n  %s\n", post.Title, len(post.Links), post.Link)
	}
	return sb.String()
}
