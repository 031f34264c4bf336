// Package config handles configuration loading and validation for techtrack.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/techtrack/internal/core/styles"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
	DriverMemory = "memory"
)

// Drivers lists every supported storage driver.
var Drivers = []string{DriverSQLite, DriverJSON, DriverMemory}

// Config holds the application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	GitHub   GitHubConfig   `yaml:"github"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	UI       UIConfig       `yaml:"ui"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// StorageConfig selects where the technology collection is persisted.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite, json or memory
	Path   string `yaml:"path"`   // json driver only; defaults to <data dir>/techtrack.json
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// GitHubConfig configures the repository search client.
type GitHubConfig struct {
	APIURL   string        `yaml:"api_url"`
	Token    string        `yaml:"token"`
	Language string        `yaml:"language"`
	PerPage  int           `yaml:"per_page"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// JobsConfig configures the job listing client.
type JobsConfig struct {
	APIURL  string        `yaml:"api_url"`
	Limit   int           `yaml:"limit"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the local HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Pprof           bool          `yaml:"pprof"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig configures expiry of cached enrichment results.
type CacheConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// UIConfig configures terminal output.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver: DriverSQLite,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		GitHub: GitHubConfig{
			APIURL:   "https://api.github.com",
			Language: "javascript",
			PerPage:  12,
			Timeout:  10 * time.Second,
			CacheTTL: time.Hour,
		},
		Jobs: JobsConfig{
			APIURL:  "https://www.themuse.com/api/public",
			Limit:   6,
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:7077",
			ShutdownTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			SweepInterval: 10 * time.Minute,
		},
		UI: UIConfig{
			Theme: styles.DefaultTheme,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided
// dataDir. GITHUB_TOKEN fills in github.token when the file leaves it unset.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = defaults.GitHub.APIURL
	}
	if c.GitHub.PerPage == 0 {
		c.GitHub.PerPage = defaults.GitHub.PerPage
	}
	if c.GitHub.Timeout == 0 {
		c.GitHub.Timeout = defaults.GitHub.Timeout
	}
	if c.GitHub.CacheTTL == 0 {
		c.GitHub.CacheTTL = defaults.GitHub.CacheTTL
	}
	if c.Jobs.APIURL == "" {
		c.Jobs.APIURL = defaults.Jobs.APIURL
	}
	if c.Jobs.Limit == 0 {
		c.Jobs.Limit = defaults.Jobs.Limit
	}
	if c.Jobs.Timeout == 0 {
		c.Jobs.Timeout = defaults.Jobs.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = defaults.Cache.SweepInterval
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Validate checks that the configuration is structurally valid. It performs
// no I/O; see ValidateDeep.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder
	check := func(field string, err error) {
		if err != nil {
			errs = errs.Append(field, err)
		}
	}

	check("data_dir", required(c.DataDir))
	check("storage.driver", knownDriver(c.Storage.Driver))
	check("database.max_open_conns", atLeast(c.Database.MaxOpenConns, 1))
	check("database.max_idle_conns", atLeast(c.Database.MaxIdleConns, 0))
	check("database.busy_timeout", atLeast(c.Database.BusyTimeout, 0))
	check("github.per_page", between(c.GitHub.PerPage, 1, 100))
	check("jobs.limit", between(c.Jobs.Limit, 1, 100))
	check("github.timeout", positive(c.GitHub.Timeout))
	check("jobs.timeout", positive(c.Jobs.Timeout))
	check("github.cache_ttl", positive(c.GitHub.CacheTTL))
	check("cache.sweep_interval", positive(c.Cache.SweepInterval))
	check("ui.theme", knownTheme(c.UI.Theme))

	return errs.ToError()
}

// StorageFile returns the JSON data file used by the json driver.
func (c *Config) StorageFile() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.DataDir, "techtrack.json")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "techtrack.log")
}

func required(v string) error {
	if v == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func knownDriver(v string) error {
	for _, d := range Drivers {
		if v == d {
			return nil
		}
	}
	return fmt.Errorf("unknown driver %q (want one of %v)", v, Drivers)
}

func knownTheme(v string) error {
	if _, ok := styles.GetPalette(v); !ok {
		return fmt.Errorf("unknown theme %q (want one of %v)", v, styles.ThemeNames())
	}
	return nil
}

func atLeast(v, lo int) error {
	if v < lo {
		return fmt.Errorf("must be at least %d", lo)
	}
	return nil
}

func between(v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return nil
}

func positive(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
