// ABOUTME: CLI command listing catalog posts through the view pipeline's pure stages.
// ABOUTME: Supports filter, search, sort, and paging with table or JSON output.
package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/output"
	"github.com/2389-research/mirrorview/internal/view"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List catalog posts",
	Long: `List catalog posts, filtered, searched, sorted, and paged.

Filter and sort default to the values last used in the browser.

Examples:
  mirrorview list                        # First page, saved filter and sort
  mirrorview list --filter adobe         # Titles containing "adobe"
  mirrorview list --search photoshop     # Search titles and mirror URLs
  mirrorview list --sort mirrors-desc    # Most mirrors first
  mirrorview list --page 2 --json        # Second page as JSON`,
	RunE: runList,
}

var (
	listFilter   string
	listSearch   string
	listSort     string
	listPage     int
	listPageSize int
	listJSON     bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFilter, "filter", "", "category filter (all, adobe, autodesk, microsoft, or any title substring)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "search titles and mirror URLs")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort key: name-asc, name-desc, mirrors-desc")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "posts per page (default from config)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filter, sortKey := savedQuery(cmd)
	if listFilter != "" {
		filter = listFilter
	}
	if listSort != "" {
		if !view.ValidSort(listSort) {
			return fmt.Errorf("unknown sort key %q", listSort)
		}
		sortKey = listSort
	}
	size := listPageSize
	if size <= 0 {
		size = globalConfig.PageSize()
	}
	page := max(listPage, 1)

	cat, err := globalCache.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	derived := view.Derive(cat, view.Query{Filter: filter, Search: listSearch, Sort: sortKey})
	visible, hasMore := view.Paginate(derived, page, size)
	start := min((page-1)*size, len(visible))
	rows := visible[start:]

	if listJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		globalPrinter.Info("No posts match.")
		return nil
	}

	favorites := make(map[string]bool)
	if links, err := globalPrefs.Favorites(ctx); err == nil {
		for _, l := range links {
			favorites[l] = true
		}
	}

	table := output.NewTable(cmd.OutOrStdout(), []string{"", "TITLE", "CATEGORY", "MIRRORS", "LINK"})
	for _, post := range rows {
		table.AddRow(favMarker(favorites[post.Link]), globalPrinter.Bold(post.Title), models.Category(post.Title), strconv.Itoa(len(post.Links)), post.Link)
	}
	if err := table.Render(); err != nil {
		return err
	}

	globalPrinter.Info("Showing %d-%d of %d", start+1, len(visible), len(derived))
	if hasMore {
		globalPrinter.Info("%d more; use --page %d", len(derived)-len(visible), page+1)
	}
	return nil
}

// savedQuery returns the persisted filter and sort, falling back to defaults.
func savedQuery(cmd *cobra.Command) (filter, sortKey string) {
	filter, _ = globalPrefs.Filter(cmd.Context())
	if filter == "" {
		filter = view.FilterAll
	}
	sortKey, _ = globalPrefs.Sort(cmd.Context())
	if !view.ValidSort(sortKey) {
		sortKey = view.SortNameAsc
	}
	return filter, sortKey
}

func favMarker(on bool) string {
	if on {
		return "*"
	}
	return ""
}
