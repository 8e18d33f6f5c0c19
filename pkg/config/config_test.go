package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/scan"
)

const fullConfig = `project: api
ignore:
  - "testdata/**"
direct:
  - "python:requests"
  - "npm:@babel/core@7.23.0"
concurrency: 8
max_file_size: 1048576
cache:
  backend: redis
  redis_url: redis://localhost:6379/0
  ttl: 168h
store:
  backend: mongo
  dsn: mongodb://localhost:27017
  database: deps
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Project != "api" || cfg.Concurrency != 8 || cfg.MaxFileSize != 1<<20 {
		t.Errorf("Parse() = %+v", cfg)
	}
	if cfg.Cache.TTL != 168*time.Hour {
		t.Errorf("Cache.TTL = %v, want 168h", cfg.Cache.TTL)
	}
	if cfg.Store.Database != "deps" {
		t.Errorf("Store.Database = %q", cfg.Store.Database)
	}

	opts, err := cfg.ScanOptions()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(opts.Ignore, "testdata/**") || !slices.Contains(opts.Ignore, scan.DefaultIgnore[0]) {
		t.Errorf("Ignore = %v, want defaults plus testdata/**", opts.Ignore)
	}
	if len(opts.Direct) != 2 || opts.Direct[1].Ecosystem != deps.JavaScript || opts.Direct[1].Version != "7.23.0" {
		t.Errorf("Direct = %+v", opts.Direct)
	}
	if co := cfg.CacheOptions(); co.Backend != "redis" || co.RedisURL == "" {
		t.Errorf("CacheOptions() = %+v", co)
	}
	if cfg.CacheTTL() != 168*time.Hour {
		t.Errorf("CacheTTL() = %v", cfg.CacheTTL())
	}
	if so := cfg.StoreOptions(); so.Backend != "mongo" || so.DSN != "mongodb://localhost:27017" {
		t.Errorf("StoreOptions() = %+v", so)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if cfg.CacheTTL() <= 0 {
		t.Error("CacheTTL() should fall back to the default")
	}
	opts, _ := cfg.ScanOptions()
	if !slices.Equal(opts.Ignore, scan.DefaultIgnore) {
		t.Errorf("Ignore = %v, want defaults", opts.Ignore)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unknown key", "concurrncy: 4\n", "concurrncy"},
		{"bad selector", "direct: [\"requests\"]\n", "Direct[0]"},
		{"bad glob", "ignore: [\"a/[b\"]\n", "Ignore[0]"},
		{"empty glob", "ignore: [\"\"]\n", "Ignore[0]"},
		{"negative concurrency", "concurrency: -1\n", "Concurrency"},
		{"unknown cache backend", "cache:\n  backend: memcached\n", "Cache.Backend"},
		{"redis without url", "cache:\n  backend: redis\n", "Cache.RedisURL is required"},
		{"mongo without dsn", "store:\n  backend: mongo\n", "Store.DSN is required"},
		{"bad ttl", "cache:\n  ttl: soon\n", "decode"},
		{"not yaml", "direct: [\n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %q, want INVALID_CONFIG", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, FileName)
	if err := os.WriteFile(cfgPath, []byte("concurrency: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := Find(sub)
	if !ok || got != cfgPath {
		t.Errorf("Find() = %q, %v, want %q", got, ok, cfgPath)
	}

	cfg, path, err := LoadDir(sub)
	if err != nil || path != cfgPath || cfg.Concurrency != 2 {
		t.Errorf("LoadDir() = %+v, %q, %v", cfg, path, err)
	}
}

func TestLoadDir_NoFile(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Find(dir); ok {
		t.Skip("a config file exists above the temp dir")
	}
	cfg, path, err := LoadDir(dir)
	if err != nil || path != "" || cfg.Concurrency != 0 {
		t.Errorf("LoadDir() = %+v, %q, %v", cfg, path, err)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
	}
}
