package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/SignalEngine/internal/config"
	"github.com/TobiSchelling/SignalEngine/internal/logging"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	syncLogger = func() {}
)

func main() {
	err := rootCmd.Execute()
	syncLogger()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "signalengine",
	Short:   "Separate signal from noise",
	Long:    "The Signal Engine renders web pages, judges them against your topic and category, and keeps a searchable history of what deserved your attention.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			syncLogger = logging.Init("info", verbose)
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		syncLogger = logging.Init(level, verbose)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(assessFeedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(similarCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("signalengine", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/signalengine/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to choose the LLM provider, renderer and database.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("System:")
		fmt.Printf("  Database: %s (%s)\n", db.Describe(), db.Path())
		fmt.Printf("  AI provider: %s / %s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Printf("  API key (%s): %s\n", cfg.LLM.APIKeyEnv, apiKeyStatus())
		fmt.Printf("  Renderer: %s (%s mode)\n", cfg.Extract.Renderer, cfg.Extract.Mode)
		fmt.Println("\nHistory:")
		fmt.Printf("  Assessed: %d\n", stats.Total)
		fmt.Printf("  Signal: %d\n", stats.Signals)
		fmt.Printf("  Noise: %d\n", stats.Noise)
		fmt.Printf("  Average score: %.2f\n", stats.AvgScore)
		fmt.Printf("  Reading time blocked: %s\n", formatSeconds(stats.BlockedReadTimeSeconds))
		return nil
	},
}

func apiKeyStatus() string {
	if cfg.APIKey() != "" {
		return "Loaded"
	}
	return "Missing"
}
