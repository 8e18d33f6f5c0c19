package python

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/depscan/pkg/errors"
)

func TestRequirements_Supports(t *testing.T) {
	parser := Requirements{}

	tests := []struct {
		filename string
		want     bool
	}{
		{"requirements.txt", true},
		{"requirements-dev.txt", true},
		{"requirements_prod.txt", true},
		{"requirements-test.txt", true},
		{"pyproject.toml", false},
		{"poetry.lock", false},
		{"Pipfile", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := parser.Supports(tt.filename); got != tt.want {
				t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestRequirements_Parse(t *testing.T) {
	content := `# Test requirements
requests>=2.28.0
click==8.1.0
pydantic[email]>=2.0 ; python_version >= "3.8"
# Comment line
httpx

# Empty lines above

-r base.txt
-e ./local-package  # editable, should be skipped
git+https://github.com/user/repo.git  # git URL, should be skipped
https://example.com/pkgs/thing-1.0.tar.gz
Flask_Login == 0.6.3 \
    --hash=sha256:abc
mylib @ https://example.com/mylib-1.0.whl
`
	parser := Requirements{}
	entries, err := parser.Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var got []string
	for _, e := range entries {
		r := parser.Normalize(e)
		got = append(got, r.Name+"@"+r.Version)
	}
	want := []string{"requests@", "click@8.1.0", "pydantic@", "httpx@", "flask-login@0.6.3", "mylib@"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %v, want %v", got, want)
	}

	pyd := entries[2].(Requirement)
	if pyd.Marker != `python_version >= "3.8"` || !reflect.DeepEqual(pyd.Extras, []string{"email"}) {
		t.Errorf("pydantic = %+v", pyd)
	}
	if entries[4].(Requirement).Line != 14 {
		t.Errorf("flask-login line = %d, want 14", entries[4].(Requirement).Line)
	}
	if loc := parser.Normalize(entries[5]).Locator; loc != "https://example.com/mylib-1.0.whl" {
		t.Errorf("mylib locator = %q", loc)
	}

	hints := parser.Link(entries)
	if len(hints.Direct) != len(entries) {
		t.Errorf("len(Direct) = %d, want %d", len(hints.Direct), len(entries))
	}
}

func TestRequirements_ParseFailure(t *testing.T) {
	_, err := Requirements{}.Parse("requests\nnot a requirement\n")
	pf, ok := err.(*errors.ParseFailure)
	if !ok {
		t.Fatalf("error = %v, want *ParseFailure", err)
	}
	if pf.Line != 2 || !strings.Contains(pf.Reason, "unexpected") {
		t.Errorf("failure = %v, want line 2 naming the unexpected text", pf)
	}
}

func TestPinnedVersion(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"==1.0", "1.0"},
		{"=== 1.0", "1.0"},
		{"==1.*", ""},
		{">=1.0", ""},
		{"==1.0,!=1.0.1", ""},
	}
	for _, tt := range tests {
		if got := pinnedVersion(tt.spec); got != tt.want {
			t.Errorf("pinnedVersion(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestPyproject_Declare(t *testing.T) {
	content := `[project]
name = "demo"
dependencies = ["Requests>=2", "click"]

[project.optional-dependencies]
test = ["pytest"]

[tool.poetry.dependencies]
python = "^3.10"
FastAPI = "^0.100"

[tool.poetry.group.dev.dependencies]
ruff = "*"
`
	names, err := Pyproject{}.Declare(content)
	if err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	want := []string{"click", "fastapi", "pytest", "requests", "ruff"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Declare() = %v, want %v", names, want)
	}
}
