package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	modeFlag    string
	grepFlag    string
	logLevel    string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

// errTestsFailed makes the process exit non-zero without printing usage
var errTestsFailed = errors.New("tests failed")

var rootCmd = &cobra.Command{
	Use:           "conduit-e2e",
	Short:         "End-to-end test runner for the Conduit app",
	Long:          `Runs the Conduit UI and API suites through go test, retries failed tests and writes a JSON report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "API backend: mock or live (overrides config)")
	rootCmd.PersistentFlags().StringVar(&grepFlag, "grep", "", `Tag filter, e.g. "@smoke,-@slow" (overrides config)`)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies defaults -> files -> env -> flags and starts logging
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat(filepath.Join("test", "config", "e2e.toml")); err == nil {
			configFiles = append(configFiles, filepath.Join("test", "config", "e2e.toml"))
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}

	if modeFlag != "" {
		config.Mode = strings.ToLower(modeFlag)
	}
	if grepFlag != "" {
		config.Grep.Tags = strings.Split(grepFlag, ",")
	}
	if logLevel != "" {
		config.Logging.Level = strings.ToLower(logLevel)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	logger.Debug().
		Strs("config_files", configFiles).
		Str("mode", config.Mode).
		Str("base_url", config.App.BaseURL).
		Str("api_url", config.App.APIURL).
		Msg("Resolved configuration")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
