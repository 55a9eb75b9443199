// Package config loads feedsync settings.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file, a .env file, and FEEDSYNC_* environment variables. The merged result
// is checked against an embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment names.
const (
	Development = "development"
	Production  = "production"
)

// Environment variables read by Load.
const (
	EnvEnvironment = "FEEDSYNC_ENV"
	EnvDatabase    = "FEEDSYNC_DB"
	EnvAPIURL      = "FEEDSYNC_API_URL"
)

// DefaultDevelopmentURL is the backend used during development.
const DefaultDevelopmentURL = "http://localhost:4000"

//go:embed schema.cue
var schemaSource string

// Config holds all feedsync settings.
type Config struct {
	Environment string    `yaml:"environment"`
	API         APIConfig `yaml:"api"`
	// Database is the SQLite file holding the token and request journal.
	Database string `yaml:"database"`

	// envAPIURL is FEEDSYNC_API_URL as seen by Load. It follows the
	// environment when SetEnvironment switches it.
	envAPIURL string
}

// APIConfig locates the backend.
type APIConfig struct {
	DevelopmentURL string        `yaml:"development_url"`
	ProductionURL  string        `yaml:"production_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	db := "feedsync.db"
	if dir, err := Dir(); err == nil {
		db = filepath.Join(dir, "feedsync.db")
	}
	return &Config{
		Environment: Development,
		API: APIConfig{
			DevelopmentURL: DefaultDevelopmentURL,
			Timeout:        15 * time.Second,
		},
		Database: db,
	}
}

// Dir returns the platform-appropriate config directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "feedsync"), nil
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the configuration. An empty path means DefaultPath, which may
// be absent; an explicit path must exist. A .env file in the working
// directory is loaded if present, without overriding variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(data, cfg); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode merges YAML onto cfg. Unknown keys are rejected.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv applies FEEDSYNC_* overrides. FEEDSYNC_API_URL replaces the URL
// of whichever environment is selected.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvEnvironment)); v != "" {
		c.Environment = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabase)); v != "" {
		c.Database = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.envAPIURL = v
		c.SetBaseURL(v)
	}
}

// SetEnvironment selects env. A FEEDSYNC_API_URL override seen by Load is
// moved to the newly selected environment.
func (c *Config) SetEnvironment(env string) {
	c.Environment = env
	if c.envAPIURL != "" {
		c.SetBaseURL(c.envAPIURL)
	}
}

// SetBaseURL replaces the backend URL of the selected environment.
func (c *Config) SetBaseURL(url string) {
	if c.Environment == Production {
		c.API.ProductionURL = url
		return
	}
	c.API.DevelopmentURL = url
}

// BaseURL returns the backend URL of the selected environment.
func (c *Config) BaseURL() string {
	if c.Environment == Production {
		return c.API.ProductionURL
	}
	return c.API.DevelopmentURL
}

// Validate checks the configuration against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(c.document()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return schemaError(err)
	}
	return nil
}

// document is the configuration as the schema sees it, with the timeout
// in nanoseconds.
func (c *Config) document() map[string]any {
	return map[string]any{
		"environment": c.Environment,
		"api": map[string]any{
			"development_url": c.API.DevelopmentURL,
			"production_url":  c.API.ProductionURL,
			"timeout":         int64(c.API.Timeout),
		},
		"database": c.Database,
	}
}

// ValidationError reports the first schema violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid config: %s", e.Message)
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

func schemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	return &ValidationError{
		Field:   strings.Join(first.Path(), "."),
		Message: first.Error(),
	}
}
