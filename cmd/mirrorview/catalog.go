// ABOUTME: CLI commands for the catalog cache.
// ABOUTME: Provides refresh, cache clear, and cache status subcommands.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/catalog"
	"github.com/2389-research/mirrorview/internal/notify"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the catalog now",
	Long:  "Fetch the catalog from the network, bypassing the cache TTL. A failed refresh keeps the cached catalog.",
	RunE:  runRefresh,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the catalog cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the in-memory and durable catalog cache",
	RunE:  runCacheClear,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the durable catalog cache record",
	RunE:  runCacheStatus,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cat, err := globalCache.Refresh(cmd.Context())
	if err != nil {
		globalNotify.Notify(notify.Event{Kind: notify.KindError, Title: "Refresh failed", Detail: err.Error()})
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}
	globalNotify.Notify(notify.Event{Kind: notify.KindRefreshed, Title: "Catalog refreshed", Detail: fmt.Sprintf("%d posts", len(cat))})
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	globalCache.Invalidate(cmd.Context())
	globalPrinter.Success("Catalog cache cleared (%s backend)", globalConfig.Cache.Backend)
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	st, err := globalCache.Inspect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	globalPrinter.Print("Backend:  %s", globalConfig.Cache.Backend)
	globalPrinter.Print("Catalog:  %s", globalConfig.Catalog.URL)
	globalPrinter.Print("TTL:      %s", globalConfig.CatalogTTL())
	if !st.Cached {
		globalPrinter.Print("Cached:   no")
		return nil
	}
	globalPrinter.Print("Cached:   %d posts", st.Posts)
	globalPrinter.Print("Fetched:  %s (%s ago)", st.FetchedAt.Local().Format(time.DateTime), st.Age.Truncate(time.Second))
	globalPrinter.Print("State:    %s", cacheState(st))
	return nil
}

// cacheState summarizes a cache record in one word.
func cacheState(st catalog.CacheStatus) string {
	switch {
	case !st.Cached:
		return "empty"
	case st.Expired:
		return "expired"
	}
	return "fresh"
}
