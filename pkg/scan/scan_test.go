package scan

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depscan/pkg/cache"
	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/ecosystems"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
)

const composerJSON = `{
  "require": {"php": ">=8.1", "monolog/monolog": "^3.0"}
}`

const composerLock = `{
  "packages": [
    {"name": "monolog/monolog", "version": "3.5.0", "require": {"php": ">=8.1", "psr/log": "^2.0 || ^3.0"}},
    {"name": "psr/log", "version": "3.0.0"}
  ]
}`

const gemfile = `source "https://rubygems.org"
gem "rails", "~> 7.1"
`

const brokenPoetry = "[[package]\nname = "

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func sampleProject(t *testing.T) string {
	return writeTree(t, map[string]string{
		"web/composer.json":                composerJSON,
		"web/composer.lock":                composerLock,
		"lib/Gemfile":                      gemfile,
		"bad/poetry.lock":                  brokenPoetry,
		"web/vendor/psr/log/composer.json": `{"require": {"php": ">=8.0"}}`,
		"README.md":                        "# sample",
		"docs/status":                      "not a dpkg database",
	})
}

func quietScanner(c cache.Cache) *Scanner {
	return New(ecosystems.Registry, c, log.New(io.Discard))
}

func phpKey(name, version string) deps.Key {
	return deps.Key{Ecosystem: deps.PHP, Name: name, Version: version}
}

func TestDiscover(t *testing.T) {
	root := sampleProject(t)
	files, err := Discover(root, ecosystems.Registry, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range files {
		got = append(got, f.Rel+" "+f.Format())
	}
	want := []string{
		"bad/poetry.lock poetry.lock",
		"lib/Gemfile Gemfile",
		"web/composer.json composer.json",
		"web/composer.lock composer.lock",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
	if files[1].Declarer == nil || files[1].Parser != nil {
		t.Error("Gemfile should be found by its declarer")
	}
	if files[3].Dir() != "web" {
		t.Errorf("Dir() = %q, want web", files[3].Dir())
	}
}

func TestDiscover_CustomIgnore(t *testing.T) {
	root := sampleProject(t)

	files, err := Discover(root, ecosystems.Registry, []string{"bad/**", "lib/**"})
	if err != nil {
		t.Fatal(err)
	}
	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	want := []string{"web/composer.json", "web/composer.lock", "web/vendor/psr/log/composer.json"}
	if !slices.Equal(rels, want) {
		t.Errorf("Discover() = %v, want %v", rels, want)
	}
}

func TestDiscover_DpkgStatus(t *testing.T) {
	root := writeTree(t, map[string]string{
		"rootfs/var/lib/dpkg/status":              "Package: curl\nVersion: 8.5.0-2\nArchitecture: amd64\n",
		"rootfs/var/lib/dpkg/status.d/base-files": "Package: base-files\nVersion: 12.4\nArchitecture: amd64\n",
		"rootfs/lib/apk/db/installed":             "P:musl\nV:1.2.4-r2\nA:x86_64\n",
	})
	files, err := Discover(root, ecosystems.Registry, nil)
	if err != nil {
		t.Fatal(err)
	}
	formats := map[string]string{}
	for _, f := range files {
		formats[f.Rel] = f.Format()
	}
	if len(formats) != 3 ||
		formats["rootfs/var/lib/dpkg/status"] != "dpkg-status" ||
		formats["rootfs/var/lib/dpkg/status.d/base-files"] != "dpkg-status" ||
		formats["rootfs/lib/apk/db/installed"] != "apk-installed" {
		t.Errorf("Discover() formats = %v", formats)
	}
}

func TestScan(t *testing.T) {
	root := sampleProject(t)
	res, err := quietScanner(nil).Scan(context.Background(), root, Options{Concurrency: 2})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Files) != 4 {
		t.Fatalf("len(Files) = %d, want 4", len(res.Files))
	}
	if len(res.Failures) != 1 || res.Failures[0].Path != "bad/poetry.lock" {
		t.Fatalf("Failures = %v, want bad/poetry.lock only", res.Failures)
	}
	if _, ok := res.Failures[0].Err.(*errors.ParseFailure); !ok {
		t.Errorf("failure error = %T, want *errors.ParseFailure", res.Failures[0].Err)
	}
	if res.AllFailed() {
		t.Error("AllFailed() = true with three good files")
	}

	g := res.Graph
	monolog, ok := g.Node(phpKey("monolog/monolog", "3.5.0"))
	if !ok || !monolog.Direct {
		t.Error("monolog/monolog should be direct through composer.json")
	}
	if psr, _ := g.Node(phpKey("psr/log", "3.0.0")); psr.Direct {
		t.Error("psr/log is transitive")
	}
	if !g.HasEdge(phpKey("monolog/monolog", "3.5.0"), phpKey("psr/log", "3.0.0")) {
		t.Error("missing monolog -> psr/log edge")
	}

	rails, ok := g.Node(deps.Key{Ecosystem: deps.Ruby, Name: "rails"})
	if !ok || !rails.Direct {
		t.Error("Gemfile without a lock file should give a direct rails node")
	}
	if len(rails.Provenance) != 1 || rails.Provenance[0].Path != "lib/Gemfile" {
		t.Errorf("rails provenance = %v", rails.Provenance)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.Ecosystem() != "" {
		t.Errorf("Ecosystem() = %q, want mixed", g.Ecosystem())
	}
}

func TestScan_DirectSelectors(t *testing.T) {
	root := sampleProject(t)
	opts := Options{Direct: []graph.Selector{{Ecosystem: deps.PHP, Name: "psr/log"}}}
	res, err := quietScanner(nil).Scan(context.Background(), root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if psr, _ := res.Graph.Node(phpKey("psr/log", "3.0.0")); !psr.Direct {
		t.Error("psr/log should be direct through the selector")
	}
}

func TestScan_Progress(t *testing.T) {
	root := sampleProject(t)
	var (
		mu    sync.Mutex
		calls []int
		total int
	)
	opts := Options{Concurrency: 3, Progress: func(done, n int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		total = n
	}}
	if _, err := quietScanner(nil).Scan(context.Background(), root, opts); err != nil {
		t.Fatal(err)
	}
	slices.Sort(calls)
	if !slices.Equal(calls, []int{1, 2, 3, 4}) {
		t.Errorf("progress calls = %v, want [1 2 3 4]", calls)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}

func TestScan_Cache(t *testing.T) {
	root := sampleProject(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := quietScanner(fc)
	ctx := context.Background()

	first, err := s.Scan(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !graph.Equal(first.Graph, second.Graph) {
		t.Error("cached scan produced a different graph")
	}
	for _, f := range second.Files {
		if f.Format == "composer.lock" && !f.Cached {
			t.Error("composer.lock should come from the cache on the second scan")
		}
	}

	refreshed, _ := s.Scan(ctx, root, Options{Refresh: true})
	for _, f := range refreshed.Files {
		if f.Cached {
			t.Errorf("%s cached despite Refresh", f.Path)
		}
	}
}

func TestScan_MaxFileSize(t *testing.T) {
	root := sampleProject(t)
	res, err := quietScanner(nil).Scan(context.Background(), root, Options{MaxFileSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !res.AllFailed() {
		t.Errorf("AllFailed() = false with every file over the limit, failures: %v", res.Failures)
	}
	if !res.Graph.Empty() {
		t.Error("graph should be empty")
	}
	for _, f := range res.Failures {
		if f.Path != "bad/poetry.lock" && !errors.Is(f, errors.ErrCodeInvalidInput) {
			t.Errorf("%s: error code = %q, want INVALID_INPUT", f.Path, errors.GetCode(f))
		}
	}
}

func TestScan_MalformedFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"requirements.txt": "requests==2.31.0\x00\n",
		"composer.lock":    composerLock,
	})
	res, err := quietScanner(nil).Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("Failures = %v, want one", res.Failures)
	}
	f := res.Failures[0]
	if f.Ecosystem != deps.Python || f.Format != "requirements.txt" {
		t.Errorf("failure = %+v", f)
	}
	if !errors.Is(f, errors.ErrCodeMalformedInput) || !f.Recoverable() {
		t.Errorf("failure %v should be a recoverable malformed input", f)
	}
	if res.Graph.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", res.Graph.NodeCount())
	}
}

func TestScan_EmptyTree(t *testing.T) {
	res, err := quietScanner(nil).Scan(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.AllFailed() || !res.Graph.Empty() || len(res.Files) != 0 {
		t.Errorf("empty tree result = %+v", res)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := quietScanner(nil).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error = %v, want INVALID_PATH", err)
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := sampleProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := quietScanner(nil).Scan(ctx, root, Options{}); err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParseBytes_Concurrent(t *testing.T) {
	fc, _ := cache.NewFileCache(t.TempDir())
	s := quietScanner(fc)
	p, err := ecosystems.Registry.Lookup("composer.lock")
	if err != nil {
		t.Fatal(err)
	}
	src := graph.Source{Path: "composer.lock", Format: "composer.lock"}
	want, _, err := s.ParseBytes(context.Background(), p, src, []byte(composerLock), true)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, _, err := s.ParseBytes(context.Background(), p, src, []byte(composerLock), false)
			if err == nil && !graph.Equal(g, want) {
				err = errors.New(errors.ErrCodeInternal, "graph differs")
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestFileFailure(t *testing.T) {
	pf := errors.NewParseFailure("poetry.lock", 2, "toml", "unexpected end")
	f := &FileFailure{Path: "bad/poetry.lock", Format: "poetry.lock", Ecosystem: deps.Python, Err: pf}

	if got, want := f.Error(), "bad/poetry.lock (python): poetry.lock:2: toml: unexpected end"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if f.Unwrap() != pf {
		t.Error("Unwrap() should return the parse failure")
	}
	if !f.Recoverable() {
		t.Error("parse failures are recoverable")
	}
	if (&FileFailure{Err: os.ErrPermission}).Recoverable() {
		t.Error("I/O errors are not recoverable")
	}
}
