package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/graph"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v; want v, true, nil", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte{0xc1}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Clear removed the cache dir: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestGraphKey(t *testing.T) {
	h := Hash([]byte("Package: curl\n"))
	k1 := GraphKey("dpkg-status", h)
	k2 := GraphKey("apk-installed", h)
	if k1 == k2 {
		t.Error("different formats should produce different keys")
	}
	if !strings.HasPrefix(k1, "graph:"+keyVersion+":dpkg-status:") {
		t.Errorf("GraphKey() = %s", k1)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"file", Options{Backend: BackendFile, Dir: t.TempDir()}, false},
		{"default is file", Options{Dir: t.TempDir()}, false},
		{"none", Options{Backend: BackendNone}, false},
		{"redis without url", Options{Backend: BackendRedis}, true},
		{"redis bad url", Options{Backend: BackendRedis, RedisURL: "http://nope"}, true},
		{"unknown", Options{Backend: "memcached"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if c != nil {
				c.Close()
			}
		})
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil || dir != "/tmp/xdg/depscan" {
		t.Errorf("DefaultDir() = %q, %v", dir, err)
	}
}

func TestGraphCodec(t *testing.T) {
	k := deps.Key{Ecosystem: deps.Rust, Name: "serde", Version: "1.0.190"}
	g := graph.Build([]deps.Record{deps.RecordFromKey(k)}, deps.Hints{Direct: []deps.Key{k}}, graph.BuildOptions{
		Ecosystem: deps.Rust,
		Source:    graph.Source{Path: "Cargo.lock", Format: "Cargo.lock"},
	})

	data, err := EncodeGraph(g)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeGraph(data)
	if err != nil {
		t.Fatal(err)
	}
	if !graph.Equal(g, back) {
		t.Error("codec round trip changed the graph")
	}

	if _, err := DecodeGraph([]byte("not zstd")); err == nil {
		t.Error("DecodeGraph of garbage should fail")
	}
}

func TestGraphs(t *testing.T) {
	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	store := Graphs{Cache: fc}
	g := graph.Build([]deps.Record{{Ecosystem: deps.Go, Name: "golang.org/x/mod", Version: "v0.31.0"}}, deps.Hints{}, graph.BuildOptions{})

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("empty store should miss")
	}
	if err := store.Put(ctx, "k", g); err != nil {
		t.Fatal(err)
	}
	back, ok := store.Get(ctx, "k")
	if !ok || !graph.Equal(g, back) {
		t.Error("Get after Put should return the graph")
	}

	_ = fc.Set(ctx, "bad", []byte("garbage"), 0)
	if _, ok := store.Get(ctx, "bad"); ok {
		t.Error("undecodable entry should miss")
	}
	if _, hit, _ := fc.Get(ctx, "bad"); hit {
		t.Error("undecodable entry should be deleted")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	base := errors.New("connection reset")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != base.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(base) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	permanent := errors.New("permanent")
	transient := errors.New("transient")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success first try", 0, nil, 1, nil},
		{"non-retryable stops", 5, permanent, 1, permanent},
		{"retry then succeed", 1, Retryable(transient), 2, nil},
		{"gives up", 5, Retryable(transient), 3, transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		return Retryable(errors.New("transient"))
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
