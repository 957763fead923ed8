// ABOUTME: Root Cobra command and global flags for the mirrorview CLI.
// ABOUTME: Lifecycle hooks load config and wire the store, catalog cache, prober, and prefs.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/catalog"
	"github.com/2389-research/mirrorview/internal/config"
	"github.com/2389-research/mirrorview/internal/logging"
	"github.com/2389-research/mirrorview/internal/metrics"
	"github.com/2389-research/mirrorview/internal/mirror"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/notify"
	"github.com/2389-research/mirrorview/internal/output"
	"github.com/2389-research/mirrorview/internal/prefs"
	"github.com/2389-research/mirrorview/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var globalConfig *config.Config
var globalLogger *slog.Logger
var globalPrinter *output.Printer
var globalStore storage.Store
var globalMetrics *metrics.Metrics
var globalCache *catalog.Cache
var globalProber *mirror.Prober
var globalRanker *mirror.Ranker
var globalPrefs *prefs.Prefs
var globalNotify *notify.Async

// Flags
var (
	flagVerbose bool
	flagColor   string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "mirrorview",
	Short: "Find a working, fast download mirror",
	Long: `
███╗   ███╗██╗██████╗ ██████╗  ██████╗ ██████╗ ██╗   ██╗██╗███████╗██╗    ██╗
████╗ ████║██║██╔══██╗██╔══██╗██╔═══██╗██╔══██╗██║   ██║██║██╔════╝██║    ██║
██╔████╔██║██║██████╔╝██████╔╝██║   ██║██████╔╝██║   ██║██║█████╗  ██║ █╗ ██║
██║╚██╔╝██║██║██╔══██╗██╔══██╗██║   ██║██╔══██╗╚██╗ ██╔╝██║██╔══╝  ██║███╗██║
██║ ╚═╝ ██║██║██║  ██║██║  ██║╚██████╔╝██║  ██║ ╚████╔╝ ██║███████╗╚███╔███╔╝
╚═╝     ╚═╝╚═╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝  ╚═══╝  ╚═╝╚══════╝ ╚══╝╚══╝

Browse a catalog of release posts and pick the best download mirror.
The catalog is cached locally; mirrors are probed on demand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		mode, err := output.ParseColorMode(flagColor)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg

		level := logging.ParseLevel(cfg.Logging.Level)
		if flagVerbose {
			level = slog.LevelDebug
		}
		globalLogger = logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
		globalPrinter = output.NewPrinterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode), flagQuiet)

		store, err := storage.Open(cmd.Context(), cfg)
		if err != nil {
			// the catalog still works from memory and the network
			globalLogger.Warn("cache backend unavailable, using memory", "backend", cfg.Cache.Backend, "err", err)
			store = storage.NewMemoryStore()
		}
		globalStore = store
		globalMetrics = metrics.New()

		client := catalog.NewClient(cfg.Catalog.URL,
			catalog.WithTimeout(cfg.CatalogTimeout()),
			catalog.WithClientLogger(globalLogger),
			catalog.WithClientMetrics(globalMetrics),
		)
		globalCache = catalog.NewCache(client, store,
			catalog.WithTTL(cfg.CatalogTTL()),
			catalog.WithCacheLogger(globalLogger),
			catalog.WithCacheMetrics(globalMetrics),
		)
		globalProber = mirror.NewProber(
			mirror.WithProbeTimeout(cfg.ProbeTimeout()),
			mirror.WithProberLogger(globalLogger),
			mirror.WithProberMetrics(globalMetrics),
		)
		globalRanker = mirror.NewRanker(cfg.PreferredMirrors())
		globalPrefs = prefs.New(store)
		globalNotify = notify.NewAsync(notify.NewPrinterSink(globalPrinter), 16)
		return nil
	},
}

func init() {
	// finalizers run even when a command fails
	cobra.OnFinalize(closeGlobals)

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
}

func closeGlobals() {
	if globalNotify != nil {
		globalNotify.Close()
		globalNotify = nil
	}
	if globalStore != nil {
		_ = globalStore.Close()
		globalStore = nil
	}
}

// resolvePost loads the catalog and finds a post by link or title substring.
func resolvePost(cmd *cobra.Command, ref string) (models.Post, error) {
	cat, err := globalCache.Get(cmd.Context())
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	post, ok := cat.Find(ref)
	if !ok {
		return models.Post{}, fmt.Errorf("no post matches %q", ref)
	}
	return post, nil
}
