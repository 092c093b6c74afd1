package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Test modes
const (
	ModeMock = "mock" // API suites run against the in-memory Conduit backend
	ModeLive = "live" // API suites run against the configured api_url
)

// Config represents the e2e harness configuration
type Config struct {
	Environment string           `toml:"environment"`
	Mode        string           `toml:"mode" validate:"oneof=mock live"`
	App         AppConfig        `toml:"app"`
	Browser     BrowserConfig    `toml:"browser"`
	Timeouts    TimeoutsConfig   `toml:"timeouts"`
	Retries     RetriesConfig    `toml:"retries"`
	Output      OutputConfig     `toml:"output"`
	Logging     LoggingConfig    `toml:"logging"`
	Grep        GrepConfig       `toml:"grep"`
	Fixtures    FixturesConfig   `toml:"fixtures"`
	Exceptions  ExceptionsConfig `toml:"exceptions"`
	Users       UsersConfig      `toml:"users"`
	Article     ArticleFixture   `toml:"article"`
	Mock        MockConfig       `toml:"mock"`
}

// AppConfig locates the application under test and its backend
type AppConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	APIURL  string `toml:"api_url" validate:"required,url"`
}

// BrowserConfig controls the chromedp allocator
type BrowserConfig struct {
	Headless           bool   `toml:"headless"`
	DisableGPU         bool   `toml:"disable_gpu"`
	ExecPath           string `toml:"exec_path"` // Chrome binary, empty = chromedp lookup
	ViewportWidth      int    `toml:"viewport_width" validate:"gt=0"`
	ViewportHeight     int    `toml:"viewport_height" validate:"gt=0"`
	RecordVideo        bool   `toml:"record_video"`
	VideoEveryNthFrame int    `toml:"video_every_nth_frame" validate:"gte=1"`
	MaxVideoFrames     int    `toml:"max_video_frames" validate:"gte=0"`
	ScreenshotOnFail   bool   `toml:"screenshot_on_fail"`
	DefaultFixtures    bool   `toml:"default_fixtures"` // stub getArticles/getTags/getCurrentUser before each test
}

// TimeoutsConfig holds per-suspension-point timeouts, e.g. "10s"
type TimeoutsConfig struct {
	Command      string `toml:"command"`
	Request      string `toml:"request"`
	Response     string `toml:"response"`
	PageLoad     string `toml:"page_load"`
	PollInterval string `toml:"poll_interval"`
	Test         string `toml:"test"`
}

// RetriesConfig mirrors runner retry counts for flaky tests
type RetriesConfig struct {
	RunMode  int `toml:"run_mode" validate:"gte=0"`
	OpenMode int `toml:"open_mode" validate:"gte=0"`
}

// OutputConfig locates run artifacts
type OutputConfig struct {
	ResultsDir string `toml:"results_dir" validate:"required"`
	ReportsDir string `toml:"reports_dir" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

// GrepConfig selects tests by tag, e.g. ["@smoke", "-@slow"]
type GrepConfig struct {
	Tags []string `toml:"tags"`
}

type FixturesConfig struct {
	Dir string `toml:"dir"`
}

// ExceptionsConfig lists uncaught page exceptions that must not fail a test
type ExceptionsConfig struct {
	IgnorePatterns []string `toml:"ignore_patterns"`
}

// TestUser is a fixed credential set supplied by configuration
type TestUser struct {
	Email    string `toml:"email" validate:"required"`
	Password string `toml:"password" validate:"required"`
	Username string `toml:"username" validate:"required"`
}

type UsersConfig struct {
	Primary   TestUser `toml:"test_user"`
	Secondary TestUser `toml:"test_user2"`
}

// ArticleFixture is the sample article content used by CRUD suites
type ArticleFixture struct {
	Title       string   `toml:"title" validate:"required"`
	Description string   `toml:"description" validate:"required"`
	Body        string   `toml:"body" validate:"required"`
	Tags        []string `toml:"tags"`
}

// MockConfig configures the in-memory backend used in mock mode
type MockConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

// NewDefaultConfig returns the configuration used when no file is supplied
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Mode:        ModeMock,
		App: AppConfig{
			BaseURL: "http://localhost:4100",
			APIURL:  "https://conduit.productionready.io/api",
		},
		Browser: BrowserConfig{
			Headless:           true,
			DisableGPU:         true,
			ViewportWidth:      1280,
			ViewportHeight:     720,
			RecordVideo:        true,
			VideoEveryNthFrame: 5,
			MaxVideoFrames:     600,
			ScreenshotOnFail:   true,
			DefaultFixtures:    false,
		},
		Timeouts: TimeoutsConfig{
			Command:      "10s",
			Request:      "10s",
			Response:     "10s",
			PageLoad:     "60s",
			PollInterval: "100ms",
			Test:         "5m",
		},
		Retries: RetriesConfig{
			RunMode:  2,
			OpenMode: 0,
		},
		Output: OutputConfig{
			ResultsDir: "./results",
			ReportsDir: "./results/reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Fixtures: FixturesConfig{
			Dir: "../fixtures",
		},
		Exceptions: ExceptionsConfig{
			IgnorePatterns: []string{
				"Request failed with status code 422",
				"Request failed with status code 401",
			},
		},
		Users: UsersConfig{
			Primary: TestUser{
				Email:    "test@example.com",
				Password: "testpassword123",
				Username: "testuser",
			},
			Secondary: TestUser{
				Email:    "test2@example.com",
				Password: "testpassword123",
				Username: "testuser2",
			},
		},
		Article: ArticleFixture{
			Title:       "Test Article for Cypress",
			Description: "This is a test article created by Cypress",
			Body:        "# Test Article\n\nThis is the **body** of the test article with *markdown* formatting.\n\n- List item 1\n- List item 2\n- List item 3",
			Tags:        []string{"cypress", "testing", "automation"},
		},
		Mock: MockConfig{
			JWTSecret: "conduit-e2e-mock-secret",
			TokenTTL:  "24h",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files. Missing paths are an error; empty paths are skipped.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies CONDUIT_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONDUIT_ENV"); env != "" {
		config.Environment = env
	}
	if mode := os.Getenv("CONDUIT_TEST_MODE"); mode != "" {
		config.Mode = strings.ToLower(mode)
	}
	if baseURL := os.Getenv("CONDUIT_BASE_URL"); baseURL != "" {
		config.App.BaseURL = baseURL
	}
	if apiURL := os.Getenv("CONDUIT_API_URL"); apiURL != "" {
		config.App.APIURL = apiURL
	}
	if headless := os.Getenv("CONDUIT_HEADLESS"); headless != "" {
		if v, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = v
		}
	}
	if execPath := os.Getenv("CONDUIT_CHROME_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if video := os.Getenv("CONDUIT_RECORD_VIDEO"); video != "" {
		if v, err := strconv.ParseBool(video); err == nil {
			config.Browser.RecordVideo = v
		}
	}
	if grep := os.Getenv("CONDUIT_GREP"); grep != "" {
		config.Grep.Tags = splitList(grep)
	}
	if level := os.Getenv("CONDUIT_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if output := os.Getenv("CONDUIT_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}
	if resultsDir := os.Getenv("CONDUIT_RESULTS_DIR"); resultsDir != "" {
		config.Output.ResultsDir = resultsDir
	}
	if reportsDir := os.Getenv("CONDUIT_REPORTS_DIR"); reportsDir != "" {
		config.Output.ReportsDir = reportsDir
	}
	if fixturesDir := os.Getenv("CONDUIT_FIXTURES_DIR"); fixturesDir != "" {
		config.Fixtures.Dir = fixturesDir
	}
	if email := os.Getenv("CONDUIT_TEST_USER_EMAIL"); email != "" {
		config.Users.Primary.Email = email
	}
	if password := os.Getenv("CONDUIT_TEST_USER_PASSWORD"); password != "" {
		config.Users.Primary.Password = password
	}
	if username := os.Getenv("CONDUIT_TEST_USER_USERNAME"); username != "" {
		config.Users.Primary.Username = username
	}
	if retries := os.Getenv("CONDUIT_RETRIES"); retries != "" {
		if v, err := strconv.Atoi(retries); err == nil {
			config.Retries.RunMode = v
		}
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks struct constraints and that every duration parses
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"timeouts.command":       c.Timeouts.Command,
		"timeouts.request":       c.Timeouts.Request,
		"timeouts.response":      c.Timeouts.Response,
		"timeouts.page_load":     c.Timeouts.PageLoad,
		"timeouts.poll_interval": c.Timeouts.PollInterval,
		"timeouts.test":          c.Timeouts.Test,
		"mock.token_ttl":         c.Mock.TokenTTL,
	}
	for key, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid configuration: %s=%q: %w", key, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid configuration: %s must be positive, got %q", key, value)
		}
	}
	return nil
}

// IsMockMode reports whether API suites should use the in-memory backend
func (c *Config) IsMockMode() bool {
	return c.Mode == ModeMock
}

// CommandTimeout is the default timeout for element lookups and assertions
func (c *Config) CommandTimeout() time.Duration {
	return mustDuration(c.Timeouts.Command, 10*time.Second)
}

// RequestTimeout bounds waits for an aliased request to be issued and complete
func (c *Config) RequestTimeout() time.Duration {
	return mustDuration(c.Timeouts.Request, 10*time.Second)
}

// ResponseTimeout bounds direct API calls
func (c *Config) ResponseTimeout() time.Duration {
	return mustDuration(c.Timeouts.Response, 10*time.Second)
}

func (c *Config) PageLoadTimeout() time.Duration {
	return mustDuration(c.Timeouts.PageLoad, 60*time.Second)
}

func (c *Config) PollInterval() time.Duration {
	return mustDuration(c.Timeouts.PollInterval, 100*time.Millisecond)
}

// TestTimeout bounds a whole UI test including browser startup
func (c *Config) TestTimeout() time.Duration {
	return mustDuration(c.Timeouts.Test, 5*time.Minute)
}

func (c *Config) TokenTTL() time.Duration {
	return mustDuration(c.Mock.TokenTTL, 24*time.Hour)
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
