// ABOUTME: MCP tool implementations for mirror testing and selection.
// ABOUTME: Registers test_mirrors and best_mirror.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/mirrorview/internal/mirror"
)

func (s *Server) registerMirrorTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "test_mirrors",
		Description: "Check every mirror of a post for reachability and latency, then report the best one.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"post": {"type": "string", "description": "Post link, or part of its title"}
			},
			"required": ["post"]
		}`),
	}, s.handleTestMirrors)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "best_mirror",
		Description: "Pick the best mirror for a post. Uses earlier test results when available, otherwise preferred providers.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"post": {"type": "string", "description": "Post link, or part of its title"},
				"test": {"type": "boolean", "description": "Test the mirrors first (default false)"}
			},
			"required": ["post"]
		}`),
	}, s.handleBestMirror)
}

func (s *Server) handleTestMirrors(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
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
	if len(post.Links) == 0 {
		return textResult(fmt.Sprintf("%s has no mirrors.", post.Title)), nil
	}

	batch := s.prober.ProbeAll(ctx, post.Links)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d of %d mirrors online\n\n", post.Title, batch.Online(), len(batch.Results))
	for _, link := range post.Links {
		r, ok := batch.Results[link]
		if !ok {
			continue
		}
		if ms, online := r.LatencyMs(); online {
			fmt.Fprintf(&sb, "- %s %s %dms\n", r.Status, link, ms)
		} else {
			fmt.Fprintf(&sb, "- %s %s\n", r.Status, link)
		}
	}
	if best, ok := s.ranker.PickBest(post, s.prober.Results()); ok {
		fmt.Fprintf(&sb, "\nBest: %s (%s)\n", best, mirror.Domain(best))
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleBestMirror(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Post string `json:"post"`
		Test bool   `json:"test"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	post, errResult := s.findPost(ctx, args.Post)
	if errResult != nil {
		return errResult, nil
	}
	if args.Test && len(post.Links) > 0 {
		s.prober.ProbeAll(ctx, post.Links)
	}

	best, ok := s.ranker.PickBest(post, s.prober.Results())
	if !ok {
		return toolError("%s has no mirrors", post.Title), nil
	}
	if s.prefs != nil {
		if err := s.prefs.AddRecent(ctx, post); err != nil {
			s.logger.Warn("recording recent post failed", "link", post.Link, "err", err)
		}
	}
	return textResult(fmt.Sprintf("%s\nDomain: %s", best, mirror.Domain(best))), nil
}
