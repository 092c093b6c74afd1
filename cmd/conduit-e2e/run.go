package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/conduit-e2e/internal/common"
	"github.com/ternarybob/conduit-e2e/internal/harness"
	"github.com/ternarybob/conduit-e2e/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [suites...]",
	Short: "Run the e2e suites (api, ui; default both)",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSuites,
}

var (
	runDir     string
	runTimeout time.Duration
	runRetries int
)

func init() {
	runCmd.Flags().StringVar(&runDir, "dir", "", "Module root (default: nearest directory with go.mod)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "go test timeout per suite run")
	runCmd.Flags().IntVar(&runRetries, "retries", -1, "Re-runs of failed tests (default: retries.run_mode)")
}

// selectSuites resolves suite names, defaulting to all of them
func selectSuites(names []string) ([]runner.Suite, error) {
	if len(names) == 0 {
		return runner.DefaultSuites, nil
	}
	var suites []runner.Suite
	for _, name := range names {
		s, ok := runner.SuiteByName(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("unknown suite %q (want api or ui)", name)
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// moduleRoot walks up from dir to the directory holding go.mod
func moduleRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found above the working directory")
		}
		dir = parent
	}
}

// suiteEnv passes the resolved configuration to the test binaries
func suiteEnv(cfg *common.Config, files []string) ([]string, error) {
	abs := func(p string) (string, error) {
		a, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		return a, nil
	}

	results, err := abs(cfg.Output.ResultsDir)
	if err != nil {
		return nil, err
	}
	reports, err := abs(cfg.Output.ReportsDir)
	if err != nil {
		return nil, err
	}

	env := []string{
		"CONDUIT_TEST_MODE=" + cfg.Mode,
		"CONDUIT_BASE_URL=" + cfg.App.BaseURL,
		"CONDUIT_API_URL=" + cfg.App.APIURL,
		"CONDUIT_GREP=" + strings.Join(cfg.Grep.Tags, ","),
		"CONDUIT_LOG_LEVEL=" + cfg.Logging.Level,
		"CONDUIT_RESULTS_DIR=" + results,
		"CONDUIT_REPORTS_DIR=" + reports,
		"CONDUIT_HEADLESS=" + strconv.FormatBool(cfg.Browser.Headless),
	}
	if len(files) > 0 {
		paths := make([]string, 0, len(files))
		for _, f := range files {
			p, err := abs(f)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}
		env = append(env, harness.ConfigEnv+"="+strings.Join(paths, string(os.PathListSeparator)))
	}
	return env, nil
}

func needsBrowser(suites []runner.Suite) bool {
	for _, s := range suites {
		if s.Name == "ui" {
			return true
		}
	}
	return false
}

func runSuites(cmd *cobra.Command, args []string) error {
	suites, err := selectSuites(args)
	if err != nil {
		return err
	}

	common.PrintBanner()

	if _, err := runner.CheckTooling(exec.LookPath, config.Browser.ExecPath, needsBrowser(suites)); err != nil {
		return err
	}

	dir := runDir
	if dir == "" {
		if dir, err = moduleRoot("."); err != nil {
			return err
		}
	}

	env, err := suiteEnv(config, configFiles)
	if err != nil {
		return err
	}

	retries := config.Retries.RunMode
	if runRetries >= 0 {
		retries = runRetries
	}

	logger.Info().
		Str("mode", config.Mode).
		Strs("grep", config.Grep.Tags).
		Int("retries", retries).
		Str("results_dir", config.Output.ResultsDir).
		Msg("Starting test run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(runner.Options{
		Dir:     dir,
		Env:     env,
		Retries: retries,
		Timeout: runTimeout,
		Logger:  logger,
	})
	report, err := r.Run(ctx, suites)
	if err != nil {
		return err
	}
	report.Mode = config.Mode
	report.Grep = config.Grep.Tags

	fmt.Println()
	report.WriteSummary(os.Stdout)

	path, err := report.WriteJSON(config.Output.ReportsDir)
	if err != nil {
		return err
	}
	fmt.Printf("\nReport: %s\n", path)

	if !report.Success() {
		return errTestsFailed
	}
	return nil
}
