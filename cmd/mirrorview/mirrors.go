// ABOUTME: CLI commands for probing mirrors and picking the best one.
// ABOUTME: Provides mirrors test and mirrors best with copy and open actions.
package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/browser"
	"github.com/2389-research/mirrorview/internal/mirror"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/notify"
	"github.com/2389-research/mirrorview/internal/output"
)

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "Probe and rank download mirrors",
}

var mirrorsTestCmd = &cobra.Command{
	Use:   "test <post>",
	Short: "Probe every mirror of a post",
	Long:  "Probe every mirror of a post concurrently and report reachability and latency.\nThe post is matched by its link or a title substring.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMirrorsTest,
}

var mirrorsBestCmd = &cobra.Command{
	Use:   "best <post>",
	Short: "Print the best mirror for a post",
	Long: `Print the best mirror for a post.

Without --test the choice falls back to the preferred providers and then the
first mirror. With --test every mirror is probed first.

Examples:
  mirrorview mirrors best photoshop
  mirrorview mirrors best photoshop --test --copy
  mirrorview mirrors best https://example.com/post --open`,
	Args: cobra.ExactArgs(1),
	RunE: runMirrorsBest,
}

var (
	bestTest bool
	bestCopy bool
	bestOpen bool
)

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// openInBrowser is swapped in tests.
var openInBrowser = browser.Open

func init() {
	rootCmd.AddCommand(mirrorsCmd)
	mirrorsCmd.AddCommand(mirrorsTestCmd)
	mirrorsCmd.AddCommand(mirrorsBestCmd)

	mirrorsBestCmd.Flags().BoolVar(&bestTest, "test", false, "probe mirrors before picking")
	mirrorsBestCmd.Flags().BoolVar(&bestCopy, "copy", false, "copy the mirror URL to the clipboard")
	mirrorsBestCmd.Flags().BoolVar(&bestOpen, "open", false, "open the mirror in the system browser")
}

func runMirrorsTest(cmd *cobra.Command, args []string) error {
	post, err := resolvePost(cmd, args[0])
	if err != nil {
		return err
	}
	if len(post.Links) == 0 {
		globalPrinter.Warning("%s has no mirrors", post.Title)
		return nil
	}

	globalPrinter.Info("Testing %d mirrors for %s", len(post.Links), post.Title)
	batch := globalProber.ProbeAll(cmd.Context(), post.Links)

	table := output.NewTable(cmd.OutOrStdout(), []string{"", "DOMAIN", "STATUS", "LATENCY", "MIRROR"})
	best, _ := globalRanker.PickBest(post, batch.Results)
	for _, link := range post.Links {
		r := batch.Results[link]
		marker := ""
		if link == best {
			marker = ">"
		}
		table.AddRow(marker, mirror.Domain(link), globalPrinter.StatusBadge(r.Status), latencyText(r), link)
	}
	if err := table.Render(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d of %d mirrors online", batch.Online(), len(batch.Results))
	globalNotify.Notify(notify.Event{Kind: notify.KindTestComplete, Title: "Speed test complete", Detail: summary})
	if best != "" {
		globalPrinter.Print("Best: %s", best)
	}
	return nil
}

func runMirrorsBest(cmd *cobra.Command, args []string) error {
	post, err := resolvePost(cmd, args[0])
	if err != nil {
		return err
	}
	if bestTest && len(post.Links) > 0 {
		globalProber.ProbeAll(cmd.Context(), post.Links)
	}

	best, ok := globalRanker.PickBest(post, globalProber.Results())
	if !ok {
		return fmt.Errorf("%s has no mirrors", post.Title)
	}
	globalPrinter.Print("%s", best)
	_ = globalPrefs.AddRecent(cmd.Context(), post)

	var failed []string
	if bestCopy {
		if err := copyToClipboard(best); err != nil {
			failed = append(failed, "copy: "+err.Error())
		} else {
			globalNotify.Notify(notify.Event{Kind: notify.KindCopied, Title: "Link copied", Detail: mirror.Domain(best)})
		}
	}
	if bestOpen {
		if err := openInBrowser(best); err != nil {
			failed = append(failed, "open: "+err.Error())
		} else {
			globalNotify.Notify(notify.Event{Kind: notify.KindBestMirror, Title: "Opening best mirror", Detail: mirror.Domain(best)})
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("mirror action failed: %s", strings.Join(failed, "; "))
	}
	return nil
}

func latencyText(r models.ProbeResult) string {
	ms, ok := r.LatencyMs()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%dms", ms)
}
