// ABOUTME: CLI commands for favorites and recently viewed posts.
// ABOUTME: Lists saved posts and toggles favorites by link or title.
package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/notify"
	"github.com/2389-research/mirrorview/internal/output"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorite posts",
	RunE:  runFavorites,
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <post>",
	Short: "Add or remove a post from favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesToggle,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently viewed posts",
	RunE:  runRecent,
}

var recentClear bool

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	rootCmd.AddCommand(recentCmd)

	recentCmd.Flags().BoolVar(&recentClear, "clear", false, "forget recently viewed posts")
}

func runFavorites(cmd *cobra.Command, args []string) error {
	cat, err := globalCache.Get(cmd.Context())
	if err != nil {
		return err
	}
	posts, err := globalPrefs.FavoritePosts(cmd.Context(), cat)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		globalPrinter.Info("No favorites yet. Add one with: mirrorview favorites toggle <post>")
		return nil
	}
	return renderPosts(cmd, posts)
}

func runFavoritesToggle(cmd *cobra.Command, args []string) error {
	post, err := resolvePost(cmd, args[0])
	if err != nil {
		return err
	}
	on, err := globalPrefs.ToggleFavorite(cmd.Context(), post.Link)
	if err != nil {
		return err
	}
	title := "Removed from favorites"
	if on {
		title = "Added to favorites"
	}
	globalNotify.Notify(notify.Event{Kind: notify.KindFavorite, Title: title, Detail: post.Title})
	return nil
}

func runRecent(cmd *cobra.Command, args []string) error {
	if recentClear {
		if err := globalPrefs.ClearRecent(cmd.Context()); err != nil {
			return err
		}
		globalPrinter.Success("Recent posts cleared")
		return nil
	}
	posts, err := globalPrefs.Recent(cmd.Context())
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		globalPrinter.Info("No recently viewed posts.")
		return nil
	}
	return renderPosts(cmd, posts)
}

func renderPosts(cmd *cobra.Command, posts []models.Post) error {
	table := output.NewTable(cmd.OutOrStdout(), []string{"TITLE", "MIRRORS", "LINK"})
	for _, p := range posts {
		table.AddRow(globalPrinter.Bold(p.Title), strconv.Itoa(len(p.Links)), p.Link)
	}
	return table.Render()
}
