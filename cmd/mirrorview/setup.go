// ABOUTME: Cobra command for interactive catalog and cache setup.
// ABOUTME: Launches a bubbletea TUI wizard and saves the validated settings.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/mirrorview/internal/config"
	"github.com/2389-research/mirrorview/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the catalog source and cache backend",
	Long:  "Interactive wizard to configure the catalog URL and the durable cache backend.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(
		cfg.Catalog.URL,
		cfg.Cache.Backend,
		cfg.Cache.RedisAddr,
	)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	applySetup(cfg, final)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}

func applySetup(cfg *config.Config, m tui.SetupModel) {
	catalogURL, backend, redisAddr := m.Result()
	cfg.Catalog.URL = catalogURL
	cfg.Cache.Backend = backend
	if backend == config.BackendRedis {
		cfg.Cache.RedisAddr = redisAddr
	}
}
