package php

import (
	"slices"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// LockedPackage is one entry of composer.lock's packages or packages-dev.
type LockedPackage struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Source   string   `json:"source,omitempty"`
	Requires []string `json:"requires,omitempty"`
	Dev      bool     `json:"dev,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (LockedPackage) Ecosystem() deps.Ecosystem { return deps.PHP }

// ComposerLock parses composer.lock files.
type ComposerLock struct{}

func (ComposerLock) Format() string            { return "composer.lock" }
func (ComposerLock) Ecosystem() deps.Ecosystem { return deps.PHP }
func (ComposerLock) Supports(name string) bool { return name == "composer.lock" }
func (ComposerLock) Patterns() []string        { return []string{"**/composer.lock"} }

type composerLock struct {
	Packages    []composerPackage `json:"packages"`
	PackagesDev []composerPackage `json:"packages-dev"`
}

type composerPackage struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Require map[string]string `json:"require"`
	Dist    struct {
		URL string `json:"url"`
	} `json:"dist"`
	Source struct {
		URL       string `json:"url"`
		Reference string `json:"reference"`
	} `json:"source"`
}

func (p ComposerLock) Parse(text string) ([]deps.NativeEntry, error) {
	var lock composerLock
	if err := deps.DecodeJSON(p.Format(), text, &lock); err != nil {
		return nil, err
	}

	var entries []deps.NativeEntry
	add := func(section string, pkgs []composerPackage, dev bool) error {
		for i, cp := range pkgs {
			if cp.Name == "" || cp.Version == "" {
				return errors.NewParseFailure(p.Format(), 0, section,
					"package #%d: name and version are required", i+1)
			}
			lp := LockedPackage{
				Name:    strings.ToLower(cp.Name),
				Version: strings.TrimPrefix(cp.Version, "v"),
				Source:  cp.Dist.URL,
				Dev:     dev,
			}
			if lp.Source == "" {
				lp.Source = cp.Source.URL
			}
			for req := range cp.Require {
				if !isPlatform(req) {
					lp.Requires = append(lp.Requires, strings.ToLower(req))
				}
			}
			slices.Sort(lp.Requires)
			entries = append(entries, lp)
		}
		return nil
	}
	if err := add("packages", lock.Packages, false); err != nil {
		return nil, err
	}
	if err := add("packages-dev", lock.PackagesDev, true); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p ComposerLock) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(p.Format(), deps.PHP, entry)
	lp := entry.(LockedPackage)
	return deps.Record{
		Ecosystem: deps.PHP,
		Name:      lp.Name,
		Version:   lp.Version,
		Locator:   lp.Source,
	}
}

// Link connects packages through their require maps.
func (p ComposerLock) Link(entries []deps.NativeEntry) deps.Hints {
	byName := make(map[string]deps.Key, len(entries))
	for _, e := range entries {
		k := p.Normalize(e).Key()
		byName[k.Name] = k
	}

	var hints deps.Hints
	for _, e := range entries {
		parent := p.Normalize(e).Key()
		for _, req := range e.(LockedPackage).Requires {
			if child, ok := byName[req]; ok {
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: child})
			}
		}
	}
	return hints
}

// ComposerJSON declares the packages required by composer.json.
type ComposerJSON struct{}

func (ComposerJSON) Format() string            { return "composer.json" }
func (ComposerJSON) Ecosystem() deps.Ecosystem { return deps.PHP }
func (ComposerJSON) Supports(name string) bool { return name == "composer.json" }
func (ComposerJSON) Patterns() []string        { return []string{"**/composer.json"} }

func (c ComposerJSON) Declare(text string) ([]string, error) {
	var manifest struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if err := deps.DecodeJSON(c.Format(), text, &manifest); err != nil {
		return nil, err
	}

	var names []string
	for _, set := range []map[string]string{manifest.Require, manifest.RequireDev} {
		for name := range set {
			if !isPlatform(name) {
				names = append(names, strings.ToLower(name))
			}
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
