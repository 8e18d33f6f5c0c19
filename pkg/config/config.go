// Package config loads the optional project configuration file
// (.depscan.yaml).
//
// The file is looked up from the scanned directory upwards. Every field is
// optional; command-line flags override the values it sets.
//
//	ignore:
//	  - "testdata/**"
//	direct:
//	  - "python:requests"
//	  - "npm:@babel/core@7.23.0"
//	concurrency: 8
//	max_file_size: 16777216
//	cache:
//	  backend: redis
//	  redis_url: redis://localhost:6379/0
//	  ttl: 168h
//	store:
//	  backend: mongo
//	  dsn: mongodb://localhost:27017
//	  database: depscan
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depscan/pkg/cache"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/scan"
	"github.com/matzehuels/depscan/pkg/storage"
)

// FileName is the name of the project configuration file.
const FileName = ".depscan.yaml"

// Config is the contents of a configuration file.
type Config struct {
	Project     string      `yaml:"project,omitempty" validate:"omitempty,max=200"`
	Ignore      []string    `yaml:"ignore,omitempty" validate:"dive,required,glob"`
	Direct      []string    `yaml:"direct,omitempty" validate:"dive,selector"`
	Concurrency int         `yaml:"concurrency,omitempty" validate:"gte=0,lte=256"`
	MaxFileSize int64       `yaml:"max_file_size,omitempty" validate:"gte=0"`
	Cache       CacheConfig `yaml:"cache,omitempty"`
	Store       StoreConfig `yaml:"store,omitempty"`
}

// CacheConfig selects the parse cache backend.
type CacheConfig struct {
	Backend  string        `yaml:"backend,omitempty" validate:"omitempty,oneof=file redis none"`
	Dir      string        `yaml:"dir,omitempty"`
	RedisURL string        `yaml:"redis_url,omitempty" validate:"required_if=Backend redis"`
	TTL      time.Duration `yaml:"ttl,omitempty" validate:"gte=0"`
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	Backend  string `yaml:"backend,omitempty" validate:"omitempty,oneof=sqlite mongo"`
	DSN      string `yaml:"dsn,omitempty" validate:"required_if=Backend mongo"`
	Database string `yaml:"database,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("selector", func(fl validator.FieldLevel) bool {
		_, err := graph.ParseSelector(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
}

// Load reads and validates the file at path. Unknown keys are an error so
// typos do not pass silently.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Parse decodes and validates configuration text. Empty input is the zero
// configuration.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find looks for FileName in dir and its parents and returns the first match.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadDir loads the configuration that applies to dir. Without a file it
// returns the zero configuration and an empty path.
func LoadDir(dir string) (Config, string, error) {
	path, ok := Find(dir)
	if !ok {
		return Config{}, "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks field constraints and reports every violation at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "selector":
		return fmt.Sprintf("%s: %q is not ecosystem:name[@version]", field, fe.Value())
	case "glob":
		return fmt.Sprintf("%s: %q is not a valid glob", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of %s", field, fe.Value(), fe.Param())
	case "required_if", "required":
		return fmt.Sprintf("%s is required", field)
	}
	return fmt.Sprintf("%s: failed %s %s", field, fe.Tag(), fe.Param())
}

// Selectors parses Direct.
func (c Config) Selectors() ([]graph.Selector, error) {
	return graph.ParseSelectors(c.Direct)
}

// ScanOptions converts the file's scan settings. Ignore globs extend
// scan.DefaultIgnore rather than replacing it.
func (c Config) ScanOptions() (scan.Options, error) {
	direct, err := c.Selectors()
	if err != nil {
		return scan.Options{}, err
	}
	return scan.Options{
		Ignore:      slices.Concat(scan.DefaultIgnore, c.Ignore),
		Direct:      direct,
		Concurrency: c.Concurrency,
		MaxFileSize: c.MaxFileSize,
	}, nil
}

// CacheOptions converts the cache section.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisURL,
	}
}

// CacheTTL returns the configured TTL or cache.DefaultTTL.
func (c Config) CacheTTL() time.Duration {
	if c.Cache.TTL > 0 {
		return c.Cache.TTL
	}
	return cache.DefaultTTL
}

// StoreOptions converts the store section.
func (c Config) StoreOptions() storage.Options {
	return storage.Options{
		Backend:  c.Store.Backend,
		DSN:      c.Store.DSN,
		Database: c.Store.Database,
	}
}
