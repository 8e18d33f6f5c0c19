package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/ecosystems"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/storage"
)

const dpkgStatus = `Package: curl
Version: 7.68.0
Architecture: amd64

Package: libc6
Version: 2.31
Architecture: amd64
`

const composerLock = `{
  "packages": [
    {"name": "monolog/monolog", "version": "3.5.0", "require": {"php": ">=8.1", "psr/log": "^3.0"}},
    {"name": "psr/log", "version": "3.0.0"}
  ]
}`

// isolate points every XDG directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	old := stdout
	stdout = io.Discard
	defer func() { stdout = old }()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"parse", "scan", "merge", "inspect", "history", "show", "formats", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", formatJSON},
		{"graph.json", formatJSON},
		{"graph.YAML", formatYAML},
		{"graph.yml", formatYAML},
		{"graph.msgpack", formatMsgPack},
		{"graph.bson", formatBSON},
		{"graph.gv", formatDOT},
		{"out/graph.svg", formatSVG},
	}
	for _, tt := range tests {
		if got := formatFromPath(tt.path); got != tt.want {
			t.Errorf("formatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEncodeGraph(t *testing.T) {
	g := graph.Build([]deps.Record{{Ecosystem: deps.Debian, Name: "curl", Version: "7.68.0"}},
		deps.Hints{}, graph.BuildOptions{Direct: []deps.Key{{Ecosystem: deps.Debian, Name: "curl", Version: "7.68.0"}}})

	for _, format := range []string{formatJSON, formatYAML, formatMsgPack, formatBSON, formatDOT, formatTable} {
		t.Run(format, func(t *testing.T) {
			data, err := encodeGraph(context.Background(), g, format, false)
			if err != nil {
				t.Fatal(err)
			}
			if len(data) == 0 {
				t.Error("empty output")
			}
		})
	}

	if _, err := encodeGraph(context.Background(), g, "pdf", false); err == nil {
		t.Error("encodeGraph(pdf) should fail")
	}
}

func TestReadGraph(t *testing.T) {
	dir := t.TempDir()
	g := graph.Build([]deps.Record{{Ecosystem: deps.Go, Name: "golang.org/x/mod", Version: "v0.20.0"}},
		deps.Hints{}, graph.BuildOptions{Source: graph.Source{Path: "go.mod", Format: "go.mod"}})

	for _, name := range []string{"g.json", "g.yaml", "g.msgpack", "g.bson"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := writeGraphTo(context.Background(), g, path, formatFromPath(path), false); err != nil {
				t.Fatal(err)
			}
			got, err := readGraph(path)
			if err != nil {
				t.Fatal(err)
			}
			if !graph.Equal(got, g) {
				t.Error("graph changed after write and read")
			}
		})
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		tag, file  string
		format     string
		isDeclarer bool
		wantErr    bool
	}{
		{"", "poetry.lock", "poetry.lock", false, false},
		{"", "sub/dir/Cargo.lock", "Cargo.lock", false, false},
		{"", "app/package.json", "package.json", true, false},
		{"python", "anything.txt", "poetry.lock", false, false},
		{"dpkg-status", "-", "dpkg-status", false, false},
		{"", "README.md", "", false, true},
		{"", "-", "", false, true},
		{"nope", "x", "", false, true},
	}
	for _, tt := range tests {
		target, err := resolveTarget(ecosystems.Registry, tt.tag, tt.file)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveTarget(%q, %q) error = %v, wantErr %v", tt.tag, tt.file, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("resolveTarget(%q, %q) code = %s, want INVALID_FORMAT", tt.tag, tt.file, errors.GetCode(err))
			}
			continue
		}
		if target.format() != tt.format || (target.declarer != nil) != tt.isDeclarer {
			t.Errorf("resolveTarget(%q, %q) = %s (declarer %v), want %s (declarer %v)",
				tt.tag, tt.file, target.format(), target.declarer != nil, tt.format, tt.isDeclarer)
		}
	}
}

func TestParseCommand_Graph(t *testing.T) {
	dir := isolate(t)
	status := filepath.Join(dir, "rootfs", "var", "lib", "dpkg", "status")
	writeFile(t, status, dpkgStatus)
	out := filepath.Join(dir, "graph.yaml")

	if err := execute(t, "parse", status, "--graph", "-o", out, "--direct", "debian:curl"); err != nil {
		t.Fatal(err)
	}
	g, err := readGraph(out)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if d := g.Direct(); len(d) != 1 || d[0].Name != "curl" {
		t.Errorf("Direct() = %v, want curl", d)
	}
}

func TestParseCommand_RecordsToFile(t *testing.T) {
	dir := isolate(t)
	status := filepath.Join(dir, "status")
	writeFile(t, status, dpkgStatus)
	out := filepath.Join(dir, "out", "records.yaml")

	if err := execute(t, "parse", "debian", status, "-o", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"name: curl", "name: libc6", "classifier: amd64"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("records.yaml missing %q:\n%s", want, data)
		}
	}
}

func TestParseCommand_Failure(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "status")
	writeFile(t, path, "Package: curl\nVersion: 1\n")

	err := execute(t, "parse", "dpkg-status", path)
	if !errors.Is(err, errors.ErrCodeParseFailure) {
		t.Fatalf("error = %v, want a parse failure", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should name the file", err)
	}
}

func TestScanCommand(t *testing.T) {
	dir := isolate(t)
	root := filepath.Join(dir, "project")
	writeFile(t, filepath.Join(root, "web", "composer.lock"), composerLock)
	writeFile(t, filepath.Join(root, "broken", "poetry.lock"), "[[package]\n")
	out := filepath.Join(dir, "graph.json")

	if err := execute(t, "scan", root, "-o", out, "--no-cache", "--save", "--project", "demo"); err != nil {
		t.Fatalf("scan with one bad file should succeed: %v", err)
	}

	g, err := readGraph(out)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("graph has %d nodes and %d edges, want 2 and 1", g.NodeCount(), g.EdgeCount())
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	snaps, err := store.List(ctx, "demo", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Failures != 1 || snaps[0].Fingerprint != graph.Fingerprint(g) {
		t.Errorf("snapshots = %+v", snaps)
	}
}

func TestScanCommand_AllFailed(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "project", "poetry.lock"), "[[package]\n")

	err := execute(t, "scan", filepath.Join(dir, "project"), "--no-cache")
	if !errors.Is(err, errors.ErrCodeParseFailure) {
		t.Errorf("error = %v, want PARSE_FAILURE when every file fails", err)
	}
}

func TestScanCommand_BadDirect(t *testing.T) {
	dir := isolate(t)
	err := execute(t, "scan", dir, "--no-cache", "--direct", "requests")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestMergeCommand(t *testing.T) {
	dir := isolate(t)
	a := graph.Build([]deps.Record{{Ecosystem: deps.PHP, Name: "psr/log", Version: "3.0.0"}},
		deps.Hints{}, graph.BuildOptions{Source: graph.Source{Path: "a/composer.lock", Format: "composer.lock"}})
	b := graph.Build([]deps.Record{{Ecosystem: deps.PHP, Name: "psr/log", Version: "3.0.0"}},
		deps.Hints{}, graph.BuildOptions{Source: graph.Source{Path: "b/composer.lock", Format: "composer.lock"}})
	pa, pb := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.yaml")
	for path, g := range map[string]*graph.Graph{pa: a, pb: b} {
		if err := writeGraphTo(context.Background(), g, path, formatFromPath(path), false); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(dir, "merged.json")
	if err := execute(t, "merge", pa, pb, "-o", out); err != nil {
		t.Fatal(err)
	}
	got, err := readGraph(out)
	if err != nil {
		t.Fatal(err)
	}
	if !graph.Equal(got, graph.Merge(a, b)) {
		t.Error("merge command differs from graph.Merge")
	}
}

func TestHistoryAndShow_Missing(t *testing.T) {
	isolate(t)
	if err := execute(t, "history"); err != nil {
		t.Errorf("history on an empty store: %v", err)
	}
	err := execute(t, "show", "does-not-exist")
	if !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("show error = %v, want SNAPSHOT_NOT_FOUND", err)
	}
}

func TestNodeListModel(t *testing.T) {
	g := graph.Build([]deps.Record{
		{Ecosystem: deps.Python, Name: "requests", Version: "2.31.0"},
		{Ecosystem: deps.Python, Name: "urllib3", Version: "2.0.7"},
		{Ecosystem: deps.Python, Name: "idna", Version: "3.6"},
	}, deps.Hints{
		Relations: []deps.Relation{{
			Parent: deps.Key{Ecosystem: deps.Python, Name: "requests", Version: "2.31.0"},
			Child:  deps.Key{Ecosystem: deps.Python, Name: "urllib3", Version: "2.0.7"},
		}},
		Direct: []deps.Key{{Ecosystem: deps.Python, Name: "requests", Version: "2.31.0"}},
	}, graph.BuildOptions{})

	var m tea.Model = NewNodeListModel(g)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if n, _ := m.(NodeListModel).Selected(); n.Name != "requests" {
		t.Errorf("after down, selected %q, want requests", n.Name)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("url")})
	nm := m.(NodeListModel)
	if len(nm.Nodes) != 1 || nm.Nodes[0].Name != "urllib3" {
		t.Fatalf("filter url = %v, want urllib3", nm.Nodes)
	}
	if view := nm.View(); !strings.Contains(view, "python:requests@2.31.0") {
		t.Error("details should list the parent of urllib3")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	nm = m.(NodeListModel)
	if len(nm.Nodes) != 1 || !nm.Nodes[0].Direct {
		t.Errorf("direct only = %v, want requests", nm.Nodes)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc should quit")
	}
}

func TestKeyList(t *testing.T) {
	keys := []deps.Key{
		{Ecosystem: deps.Go, Name: "a"},
		{Ecosystem: deps.Go, Name: "b"},
		{Ecosystem: deps.Go, Name: "c"},
	}
	if got, want := keyList(keys, 2), "go:a, go:b, +1 more"; got != want {
		t.Errorf("keyList() = %q, want %q", got, want)
	}
	if got := keyList(nil, 2); got != "" {
		t.Errorf("keyList(nil) = %q, want empty", got)
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "graph"); got != "1 graph" {
		t.Errorf("pluralize(1) = %q", got)
	}
	if got := pluralize(3, "graph"); got != "3 graphs" {
		t.Errorf("pluralize(3) = %q", got)
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		if err := execute(t, "completion", shell); err != nil {
			t.Errorf("completion %s: %v", shell, err)
		}
	}
	if err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}

	names, _ := completeFormats(nil, nil, "")
	for _, want := range []string{"dpkg-status", "poetry.lock", "debian"} {
		if !slices.Contains(names, want) {
			t.Errorf("completeFormats() missing %q", want)
		}
	}
	if names, _ := completeFormats(nil, []string{"debian"}, ""); names != nil {
		t.Errorf("completeFormats() after the format = %v, want file completion", names)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	buf := captureStdout(t)
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got, want := strings.TrimSpace(buf.String()), filepath.Join(dir, "cache", appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}
