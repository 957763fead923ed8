// ABOUTME: Core data models for catalog posts and mirror probe results.
// ABOUTME: Provides the Post and Catalog types plus probe status classification.
package models

import (
	"strings"
	"time"
)

// Post is one cataloged release with a title and its alternate download mirrors.
type Post struct {
	Title string   `json:"title"`
	Link  string   `json:"link"`  // canonical identifier (the original post URL)
	Links []string `json:"links"` // mirror URLs in source order
}

// Catalog is an ordered, immutable sequence of posts. A refresh replaces it wholesale.
type Catalog []Post

// FindByLink returns the post whose canonical link matches.
func (c Catalog) FindByLink(link string) (Post, bool) {
	for _, p := range c {
		if p.Link == link {
			return p, true
		}
	}
	return Post{}, false
}

// Find resolves a user-supplied reference: an exact link first, then the first
// post whose title contains ref (case-insensitive).
func (c Catalog) Find(ref string) (Post, bool) {
	if p, ok := c.FindByLink(ref); ok {
		return p, true
	}
	needle := strings.ToLower(ref)
	for _, p := range c {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			return p, true
		}
	}
	return Post{}, false
}

// Categories lists the known category filter tokens in display order.
var Categories = []string{"all", "adobe", "autodesk", "microsoft"}

// Category returns the display category for a post title.
func Category(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "adobe"):
		return "Adobe"
	case strings.Contains(lower, "autodesk"):
		return "Autodesk"
	case strings.Contains(lower, "microsoft"):
		return "Microsoft"
	}
	return "Other"
}

// ProbeStatus classifies a mirror by reachability and latency.
type ProbeStatus string

const (
	StatusFast    ProbeStatus = "fast"
	StatusNormal  ProbeStatus = "normal"
	StatusSlow    ProbeStatus = "slow"
	StatusOffline ProbeStatus = "offline"
)

// ProbeResult is the outcome of a single mirror check. Results live only in memory.
type ProbeResult struct {
	URL     string        `json:"url"`
	Online  bool          `json:"online"`
	Latency time.Duration `json:"-"`
	Status  ProbeStatus   `json:"status"`
}

// LatencyMs returns the measured latency rounded to milliseconds, or false
// when the mirror was offline and no latency was recorded.
func (r ProbeResult) LatencyMs() (int64, bool) {
	if !r.Online {
		return 0, false
	}
	return r.Latency.Round(time.Millisecond).Milliseconds(), true
}

// ClassifyLatency maps a successful probe's elapsed time, rounded to
// milliseconds, to a status.
func ClassifyLatency(d time.Duration) ProbeStatus {
	d = d.Round(time.Millisecond)
	switch {
	case d < time.Second:
		return StatusFast
	case d < 3*time.Second:
		return StatusNormal
	default:
		return StatusSlow
	}
}
