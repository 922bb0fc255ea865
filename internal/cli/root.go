package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mdindex/config"
	"mdindex/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *slog.Logger

	flagFolder   string
	flagDBPath   string
	flagDriver   string
	flagLogLevel string

	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "mdindex",
	Short: "Markdown indexer - keyword and full-text search over a folder of documents",
	Long: `mdindex keeps a keyword and full-text index over a folder of Markdown
documents. Keywords are extracted per document language; the index is
refreshed on a fixed interval and served to LLM clients over MCP.

Example usage:
  mdindex index ./notes               # Index a folder once
  mdindex serve                       # Keep indexing and serve MCP over stdio
  mdindex search docker kubernetes    # Documents with any of the keywords
  mdindex fulltext "docker compose"   # Substring search with previews`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ApplyEnv(); err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, closeLog, err = logging.Setup(logging.Config{
			Level:    cfg.Logging.Level,
			Format:   cfg.Logging.Format,
			FilePath: cfg.Logging.File,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

// applyFlags lets explicit command-line flags win over file and environment.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("folder") {
		cfg.Scan.Folder = flagFolder
	}
	if flags.Changed("db") {
		cfg.Store.Path = flagDBPath
	}
	if flags.Changed("driver") {
		cfg.Store.Driver = flagDriver
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mdindex.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "directory to look for the config file in (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&flagFolder, "folder", "f", "", "folder with Markdown documents (overrides scan.folder)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "index database path (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "index store driver: bolt, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetConfig() *config.Config {
	return cfg
}
