package deps

import (
	"cmp"
	"fmt"
	"strings"
)

// Ecosystem identifies a package-management system. The set is closed: every
// value a parser or record carries is one of the constants below.
type Ecosystem string

const (
	Debian     Ecosystem = "debian"
	Alpine     Ecosystem = "alpine"
	Python     Ecosystem = "python"
	Rust       Ecosystem = "rust"
	Go         Ecosystem = "go"
	JavaScript Ecosystem = "javascript"
	Ruby       Ecosystem = "ruby"
	PHP        Ecosystem = "php"
	Java       Ecosystem = "java"
)

// Ecosystems lists every known ecosystem in display order.
var Ecosystems = []Ecosystem{Debian, Alpine, Python, Rust, Go, JavaScript, Ruby, PHP, Java}

// Valid reports whether e is one of the known ecosystems.
func (e Ecosystem) Valid() bool {
	for _, known := range Ecosystems {
		if e == known {
			return true
		}
	}
	return false
}

func (e Ecosystem) String() string { return string(e) }

// ParseEcosystem converts a user-supplied name into an Ecosystem.
// Matching is case-insensitive; "golang" and "node"/"npm" are accepted as aliases.
func ParseEcosystem(s string) (Ecosystem, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "golang":
		return Go, nil
	case "node", "npm":
		return JavaScript, nil
	case "dpkg":
		return Debian, nil
	case "apk":
		return Alpine, nil
	}
	if e := Ecosystem(name); e.Valid() {
		return e, nil
	}
	return "", fmt.Errorf("unknown ecosystem %q", s)
}

// Key is the deduplication identity of a dependency. Two records denote the
// same package exactly when their keys are equal.
type Key struct {
	Ecosystem  Ecosystem `json:"ecosystem" yaml:"ecosystem" bson:"ecosystem" msgpack:"ecosystem"`
	Name       string    `json:"name" yaml:"name" bson:"name" msgpack:"name"`
	Version    string    `json:"version,omitempty" yaml:"version,omitempty" bson:"version,omitempty" msgpack:"version,omitempty"`
	Classifier string    `json:"classifier,omitempty" yaml:"classifier,omitempty" bson:"classifier,omitempty" msgpack:"classifier,omitempty"`
}

// String renders the key as ecosystem:name@version, with the classifier
// appended in brackets when present (e.g., "debian:curl@7.68.0[amd64]").
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Ecosystem))
	b.WriteByte(':')
	b.WriteString(k.Name)
	if k.Version != "" {
		b.WriteByte('@')
		b.WriteString(k.Version)
	}
	if k.Classifier != "" {
		b.WriteByte('[')
		b.WriteString(k.Classifier)
		b.WriteByte(']')
	}
	return b.String()
}

// CompareKeys orders keys by ecosystem, name, version, then classifier.
func CompareKeys(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.Ecosystem, b.Ecosystem),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Version, b.Version),
		cmp.Compare(a.Classifier, b.Classifier),
	)
}

// Record is the canonical, ecosystem-agnostic description of one dependency.
// Records are values: once produced by a normalizer they are never modified.
type Record struct {
	Ecosystem  Ecosystem `json:"ecosystem" yaml:"ecosystem" bson:"ecosystem" msgpack:"ecosystem"`
	Name       string    `json:"name" yaml:"name" bson:"name" msgpack:"name"`
	Version    string    `json:"version,omitempty" yaml:"version,omitempty" bson:"version,omitempty" msgpack:"version,omitempty"`
	Classifier string    `json:"classifier,omitempty" yaml:"classifier,omitempty" bson:"classifier,omitempty" msgpack:"classifier,omitempty"`
	// Locator records where the package came from (registry source, resolved
	// URL, replacement path). It is informational and not part of the identity.
	Locator string `json:"locator,omitempty" yaml:"locator,omitempty" bson:"locator,omitempty" msgpack:"locator,omitempty"`
}

// Key returns the record's identity.
func (r Record) Key() Key {
	return Key{
		Ecosystem:  r.Ecosystem,
		Name:       r.Name,
		Version:    r.Version,
		Classifier: r.Classifier,
	}
}

func (r Record) String() string { return r.Key().String() }

// RecordFromKey returns a record carrying only the identity fields of k.
func RecordFromKey(k Key) Record {
	return Record{Ecosystem: k.Ecosystem, Name: k.Name, Version: k.Version, Classifier: k.Classifier}
}

// NativeEntry is one parsed unit in its ecosystem-specific shape, before
// normalization. Each ecosystem package defines its own entry types.
type NativeEntry interface {
	// Ecosystem identifies which ecosystem produced the entry.
	Ecosystem() Ecosystem
}

// Relation is a parent-depends-on-child hint taken from the source format.
type Relation struct {
	Parent Key `json:"parent" yaml:"parent"`
	Child  Key `json:"child" yaml:"child"`
}

// Hints carries the structural information a format provides beyond the flat
// record list: dependency relations and which records the project declares
// directly.
type Hints struct {
	Relations []Relation
	Direct    []Key
}

// Empty reports whether h carries no information.
func (h Hints) Empty() bool {
	return len(h.Relations) == 0 && len(h.Direct) == 0
}
