// ABOUTME: Deterministic best-mirror selection from probe results and provider hints.
// ABOUTME: Pure function of its inputs; never reorders a post's links.
package mirror

import (
	"net/url"
	"strings"

	"github.com/2389-research/mirrorview/internal/models"
)

// DefaultPreferred lists the preferred provider substrings.
var DefaultPreferred = []string{"pb.wtf", "uztracker.net"}

// Ranker picks one mirror per post.
type Ranker struct {
	preferred []string
}

// NewRanker creates a ranker. A nil list uses DefaultPreferred.
func NewRanker(preferred []string) *Ranker {
	if preferred == nil {
		preferred = DefaultPreferred
	}
	return &Ranker{preferred: append([]string(nil), preferred...)}
}

// Preferred reports whether link belongs to a preferred provider.
func (r *Ranker) Preferred(link string) bool {
	for _, pref := range r.preferred {
		if strings.Contains(link, pref) {
			return true
		}
	}
	return false
}

// PickBest returns the best mirror for post:
//  1. no links: none
//  2. online probed mirrors: the fastest preferred one, else the fastest overall
//  3. otherwise: the first preferred link, else the first link
//
// Latency ties go to the earlier link.
func (r *Ranker) PickBest(post models.Post, results map[string]models.ProbeResult) (string, bool) {
	if len(post.Links) == 0 {
		return "", false
	}

	var online []models.ProbeResult
	for _, link := range post.Links {
		if res, ok := results[link]; ok && res.Online {
			res.URL = link
			online = append(online, res)
		}
	}

	if len(online) > 0 {
		var preferred []models.ProbeResult
		for _, res := range online {
			if r.Preferred(res.URL) {
				preferred = append(preferred, res)
			}
		}
		if len(preferred) > 0 {
			return fastest(preferred), true
		}
		return fastest(online), true
	}

	for _, link := range post.Links {
		if r.Preferred(link) {
			return link, true
		}
	}
	return post.Links[0], true
}

// fastest compares whole milliseconds; the earliest of equal results wins.
func fastest(rs []models.ProbeResult) string {
	best := rs[0]
	bestMs, _ := best.LatencyMs()
	for _, res := range rs[1:] {
		if ms, _ := res.LatencyMs(); ms < bestMs {
			best, bestMs = res, ms
		}
	}
	return best.URL
}

// Domain returns the host of a mirror URL for display, or the input when it
// does not parse.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
