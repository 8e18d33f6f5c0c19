package cli

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/scan"
)

// captureStdout redirects status output for the duration of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestPrintFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "parse failure",
			err:  errors.NewParseFailure("poetry.lock", 2, "package", "missing version"),
			want: []string{"bad/poetry.lock (poetry.lock)", "line 2, package: missing version"},
		},
		{
			name: "malformed input",
			err:  &errors.MalformedInputFailure{Offset: 17, Reason: "NUL byte"},
			want: []string{"byte 17: NUL byte"},
		},
		{
			name: "other",
			err:  stderrors.New("permission denied"),
			want: []string{"permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureStdout(t)
			printFailure(&scan.FileFailure{Path: "bad/poetry.lock", Format: "poetry.lock", Ecosystem: deps.Python, Err: tt.err})
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output = %q, want %q", buf.String(), w)
				}
			}
		})
	}
}

func TestPrintStats(t *testing.T) {
	buf := captureStdout(t)
	printStats(1, 3, true)
	if got := buf.String(); !strings.Contains(got, "1 node · 3 edges · cached") {
		t.Errorf("printStats() = %q", got)
	}
}

func TestEcosystemStyle(t *testing.T) {
	for _, e := range deps.Ecosystems {
		if _, ok := ecosystemColors[e]; !ok {
			t.Errorf("no color for ecosystem %s", e)
		}
	}
	if got := ecosystemStyle("cobol").Render("x"); got != "x" {
		t.Errorf("unknown ecosystem rendered %q, want plain", got)
	}
}
