// ABOUTME: Pure filter, search, sort, and pagination over a catalog.
// ABOUTME: Never mutates the source catalog; every call returns a new sequence.
package view

import (
	"slices"
	"sort"
	"strings"

	"github.com/2389-research/mirrorview/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the number of posts added per page.
const DefaultPageSize = 50

// FilterAll disables the category filter.
const FilterAll = "all"

// Sort keys.
const (
	SortNameAsc     = "name-asc"
	SortNameDesc    = "name-desc"
	SortMirrorsDesc = "mirrors-desc"
)

// SortKeys lists the supported sort keys in display order.
var SortKeys = []string{SortNameAsc, SortNameDesc, SortMirrorsDesc}

// ValidSort reports whether key is a supported sort key.
func ValidSort(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Query holds the inputs that shape the full derived sequence.
type Query struct {
	Filter string
	Search string
	Sort   string
}

// Derive applies the category filter, then search, then sort. An unknown
// sort key keeps source order.
func Derive(catalog models.Catalog, q Query) []models.Post {
	out := make([]models.Post, 0, len(catalog))
	filter := strings.ToLower(q.Filter)
	search := strings.ToLower(q.Search)

	for _, post := range catalog {
		title := strings.ToLower(post.Title)
		if filter != "" && filter != FilterAll && !strings.Contains(title, filter) {
			continue
		}
		if search != "" && !matchesSearch(post, title, search) {
			continue
		}
		out = append(out, post)
	}

	switch q.Sort {
	case SortNameAsc, SortNameDesc:
		// Collator holds scratch buffers; one per call keeps Derive safe for concurrent use.
		col := collate.New(language.Und)
		desc := q.Sort == SortNameDesc
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return col.CompareString(out[j].Title, out[i].Title) < 0
			}
			return col.CompareString(out[i].Title, out[j].Title) < 0
		})
	case SortMirrorsDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return len(out[i].Links) > len(out[j].Links)
		})
	}
	return out
}

func matchesSearch(post models.Post, lowerTitle, search string) bool {
	if strings.Contains(lowerTitle, search) {
		return true
	}
	for _, link := range post.Links {
		if strings.Contains(strings.ToLower(link), search) {
			return true
		}
	}
	return false
}

// Paginate returns the first page*size posts and whether more remain. The
// result has no spare capacity, so appending to it never writes into posts.
func Paginate(posts []models.Post, page, size int) ([]models.Post, bool) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	n := page * size
	if n >= len(posts) {
		return slices.Clip(posts), false
	}
	return posts[:n:n], true
}
