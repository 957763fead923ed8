// ABOUTME: Cobra command launching the interactive browse screen.
// ABOUTME: Builds the view pipeline from config and saved prefs and runs the TUI.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/tui"
	"github.com/2389-research/mirrorview/internal/view"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Long: `Browse the catalog in a terminal UI.

Keys: ↑/↓ move, / search, f filter, s sort, t test mirrors, c copy best
mirror, o open best mirror, * favorite, r refresh, q quit.`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	filter, sortKey := savedQuery(cmd)
	pipeline := view.NewPipeline(
		view.WithPageSize(globalConfig.PageSize()),
		view.WithSearchDelay(globalConfig.SearchDebounce()),
		view.WithLoadMoreCooldown(globalConfig.LoadMoreCooldown()),
		view.WithInitialQuery(filter, sortKey),
	)
	defer pipeline.Close()

	model := tui.NewBrowseModel(tui.BrowseDeps{
		Catalog:  globalCache,
		Pipeline: pipeline,
		Prober:   globalProber,
		Ranker:   globalRanker,
		Prefs:    globalPrefs,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
