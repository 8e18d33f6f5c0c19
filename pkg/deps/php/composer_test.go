package php

import (
	"reflect"
	"testing"

	"github.com/matzehuels/depscan/pkg/errors"
)

const composerLock = `{
    "content-hash": "abc",
    "packages": [
        {
            "name": "monolog/monolog",
            "version": "3.5.0",
            "require": {"php": ">=8.1", "psr/log": "^2.0 || ^3.0", "ext-json": "*"},
            "dist": {"type": "zip", "url": "https://api.github.com/repos/Seldaek/monolog/zipball/c915e2"}
        },
        {
            "name": "psr/log",
            "version": "v3.0.0",
            "source": {"type": "git", "url": "https://github.com/php-fig/log.git", "reference": "fe5ea3"}
        }
    ],
    "packages-dev": [
        {
            "name": "PHPUnit/PHPUnit",
            "version": "10.5.0",
            "require": {"php": ">=8.1"}
        }
    ]
}`

func TestComposerLock_Parse(t *testing.T) {
	p := ComposerLock{}
	entries, err := p.Parse(composerLock)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}

	var got []string
	for _, e := range entries {
		r := p.Normalize(e)
		got = append(got, r.Name+"@"+r.Version)
	}
	want := []string{"monolog/monolog@3.5.0", "psr/log@3.0.0", "phpunit/phpunit@10.5.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %v, want %v", got, want)
	}
	if !entries[2].(LockedPackage).Dev {
		t.Error("packages-dev entry should be marked dev")
	}
	if loc := p.Normalize(entries[1]).Locator; loc != "https://github.com/php-fig/log.git" {
		t.Errorf("psr/log locator = %q", loc)
	}

	hints := p.Link(entries)
	if len(hints.Relations) != 1 || hints.Relations[0].Child.Name != "psr/log" {
		t.Errorf("Relations = %v, want monolog -> psr/log", hints.Relations)
	}
}

func TestComposerLock_MissingVersion(t *testing.T) {
	_, err := ComposerLock{}.Parse(`{"packages": [{"name": "a/b"}]}`)
	if !errors.Is(err, errors.ErrCodeParseFailure) {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestComposerJSON_Declare(t *testing.T) {
	names, err := ComposerJSON{}.Declare(`{
    "require": {"php": "^8.1", "ext-mbstring": "*", "Monolog/Monolog": "^3.0"},
    "require-dev": {"phpunit/phpunit": "^10"}
}`)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"monolog/monolog", "phpunit/phpunit"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Declare() = %v, want %v", names, want)
	}
}

func TestIsPlatform(t *testing.T) {
	for name, want := range map[string]bool{
		"php":                 true,
		"ext-json":            true,
		"lib-icu":             true,
		"composer-plugin-api": true,
		"psr/log":             false,
	} {
		if got := isPlatform(name); got != want {
			t.Errorf("isPlatform(%q) = %v, want %v", name, got, want)
		}
	}
}
