package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/common"
)

// ConfigEnv lists config files (os.PathListSeparator separated) layered over
// the default one
const ConfigEnv = "CONDUIT_CONFIG"

// defaultConfigPath is relative to a suite package directory (test/ui, test/api)
const defaultConfigPath = "../config/e2e.toml"

var (
	loadOnce  sync.Once
	loadedCfg *common.Config
	loadErr   error
	suiteLog  arbor.ILogger
)

// configPaths returns the config files to layer, in order
func configPaths() []string {
	var paths []string
	if _, err := os.Stat(defaultConfigPath); err == nil {
		paths = append(paths, defaultConfigPath)
	}
	for _, p := range filepath.SplitList(os.Getenv(ConfigEnv)) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// LoadConfig loads the run configuration and initialises logging once per
// test binary. Relative output and fixture directories are resolved against
// the working directory.
func LoadConfig() (*common.Config, arbor.ILogger, error) {
	loadOnce.Do(func() {
		cfg, err := common.LoadFromFiles(configPaths()...)
		if err != nil {
			loadErr = fmt.Errorf("failed to load e2e config: %w", err)
			return
		}
		for _, dir := range []*string{&cfg.Output.ResultsDir, &cfg.Output.ReportsDir, &cfg.Fixtures.Dir} {
			if abs, err := filepath.Abs(*dir); err == nil {
				*dir = abs
			}
		}
		loadedCfg = cfg
		suiteLog = common.InitLogger(cfg)
	})
	return loadedCfg, suiteLog, loadErr
}
