// Package config loads application configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// DefaultConfigFile is looked up in the working directory when neither
// --config nor MERGEDSINCE_CONFIG names a file.
const DefaultConfigFile = ".mergedsince.yaml"

const (
	defaultAPIURL   = "https://api.github.com/"
	defaultTokenEnv = "GITHUB_TOKEN"
	defaultTimeout  = 30 * time.Second
	maxPerPage      = 100
)

// Config holds the resolved application configuration.
type Config struct {
	GitHubToken    string
	TokenEnv       string
	APIBaseURL     string
	PerPage        int // Zero leaves page size to the server.
	HTTPTimeout    time.Duration
	Format         model.Format
	DBPath         string
	HistoryEnabled bool
	LogLevel       slog.Level
	// Source is the YAML file that was loaded, empty when none was.
	Source string
}

// fileConfig mirrors the YAML file layout. Pointer fields distinguish an
// explicit zero value from an omitted key.
type fileConfig struct {
	GitHub struct {
		APIURL   string `yaml:"api_url"`
		TokenEnv string `yaml:"token_env"`
		PerPage  *int   `yaml:"per_page"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"github"`
	Output struct {
		Format string `yaml:"format"`
	} `yaml:"output"`
	History struct {
		DBPath  string `yaml:"db_path"`
		Enabled *bool  `yaml:"enabled"`
	} `yaml:"history"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TokenEnv:       defaultTokenEnv,
		APIBaseURL:     defaultAPIURL,
		HTTPTimeout:    defaultTimeout,
		Format:         model.FormatMarkdown,
		DBPath:         defaultDBPath(),
		HistoryEnabled: true,
		LogLevel:       slog.LevelWarn,
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "mergedsince.db"
	}
	return filepath.Join(dir, "mergedsince", "history.db")
}

// Load resolves configuration. If path is empty, MERGEDSINCE_CONFIG is used,
// and failing that DefaultConfigFile when it exists. An explicitly named file
// that cannot be read is an error. Environment variables override the file:
// the token variable (GITHUB_TOKEN unless github.token_env renames it),
// MERGEDSINCE_API_URL, MERGEDSINCE_PER_PAGE, MERGEDSINCE_HTTP_TIMEOUT,
// MERGEDSINCE_FORMAT, MERGEDSINCE_DB_PATH, MERGEDSINCE_HISTORY and
// MERGEDSINCE_LOG_LEVEL.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MERGEDSINCE_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.GitHub.APIURL != "" {
		c.APIBaseURL = fc.GitHub.APIURL
	}
	if fc.GitHub.TokenEnv != "" {
		c.TokenEnv = fc.GitHub.TokenEnv
	}
	if fc.GitHub.PerPage != nil {
		if err := validatePerPage(*fc.GitHub.PerPage); err != nil {
			return fmt.Errorf("%s: github.per_page %w", path, err)
		}
		c.PerPage = *fc.GitHub.PerPage
	}
	if fc.GitHub.Timeout != "" {
		d, err := parseTimeout(fc.GitHub.Timeout)
		if err != nil {
			return fmt.Errorf("%s: github.timeout %w", path, err)
		}
		c.HTTPTimeout = d
	}
	if fc.Output.Format != "" {
		f, err := model.ParseFormat(fc.Output.Format)
		if err != nil {
			return fmt.Errorf("%s: output.format has %w", path, err)
		}
		c.Format = f
	}
	if fc.History.DBPath != "" {
		c.DBPath = fc.History.DBPath
	}
	if fc.History.Enabled != nil {
		c.HistoryEnabled = *fc.History.Enabled
	}
	if fc.Log.Level != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(fc.Log.Level)); err != nil {
			return fmt.Errorf("%s: log.level has invalid level %q: %w", path, fc.Log.Level, err)
		}
		c.LogLevel = lvl
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.GitHubToken = strings.TrimSpace(os.Getenv(c.TokenEnv))

	if v, ok := os.LookupEnv("MERGEDSINCE_API_URL"); ok && v != "" {
		c.APIBaseURL = v
	}

	if v, ok := os.LookupEnv("MERGEDSINCE_PER_PAGE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MERGEDSINCE_PER_PAGE has invalid integer %q: %w", v, err)
		}
		if err := validatePerPage(n); err != nil {
			return fmt.Errorf("MERGEDSINCE_PER_PAGE %w", err)
		}
		c.PerPage = n
	}

	if v, ok := os.LookupEnv("MERGEDSINCE_HTTP_TIMEOUT"); ok {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("MERGEDSINCE_HTTP_TIMEOUT %w", err)
		}
		c.HTTPTimeout = d
	}

	if v, ok := os.LookupEnv("MERGEDSINCE_FORMAT"); ok {
		f, err := model.ParseFormat(v)
		if err != nil {
			return fmt.Errorf("MERGEDSINCE_FORMAT has %w", err)
		}
		c.Format = f
	}

	if v, ok := os.LookupEnv("MERGEDSINCE_DB_PATH"); ok && v != "" {
		c.DBPath = v
	}

	if v, ok := os.LookupEnv("MERGEDSINCE_HISTORY"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MERGEDSINCE_HISTORY has invalid boolean %q: %w", v, err)
		}
		c.HistoryEnabled = enabled
	}

	if v, ok := os.LookupEnv("MERGEDSINCE_LOG_LEVEL"); ok {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("MERGEDSINCE_LOG_LEVEL has invalid level %q: %w", v, err)
		}
		c.LogLevel = lvl
	}

	return nil
}

// RequireToken returns a credential-missing error when no token was found in
// the configured environment variable.
func (c *Config) RequireToken() error {
	if c.GitHubToken == "" {
		return &model.Error{Kind: model.KindCredentialMissing, Field: c.TokenEnv}
	}
	return nil
}

func validatePerPage(n int) error {
	if n < 1 || n > maxPerPage {
		return fmt.Errorf("must be between 1 and %d, got %d", maxPerPage, n)
	}
	return nil
}

func parseTimeout(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("has invalid duration %q: %w", v, err)
	}
	if d <= 0 {
		return 0, errors.New("must be a positive duration")
	}
	return d, nil
}

// expandPath expands a leading ~/ and environment variables.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
