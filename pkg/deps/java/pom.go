package java

import (
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

const format = "pom.xml"

// Dependency is one <dependency> of a POM after property substitution.
type Dependency struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version,omitempty"`
	Classifier string `json:"classifier,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (Dependency) Ecosystem() deps.Ecosystem { return deps.Java }

// Coordinate returns "groupId:artifactId".
func (d Dependency) Coordinate() string { return d.GroupID + ":" + d.ArtifactID }

// POM parses Maven pom.xml files.
type POM struct{}

func (POM) Format() string            { return format }
func (POM) Ecosystem() deps.Ecosystem { return deps.Java }
func (POM) Supports(name string) bool { return name == "pom.xml" }
func (POM) Patterns() []string        { return []string{"**/pom.xml"} }

func (POM) Parse(text string) ([]deps.NativeEntry, error) {
	var pom pomProject
	if err := deps.DecodeXML(format, text, &pom); err != nil {
		return nil, err
	}

	props := pom.properties()
	managed := make(map[string]string)
	for _, d := range pom.Management {
		managed[props.expand(d.GroupID)+":"+props.expand(d.ArtifactID)] = props.expand(d.Version)
	}

	var entries []deps.NativeEntry
	seen := make(map[deps.Key]bool)
	for i, pd := range pom.Dependencies {
		scope := props.expand(pd.Scope)
		if scope == "test" || scope == "provided" || props.expand(pd.Optional) == "true" {
			continue
		}
		d := Dependency{
			GroupID:    props.expand(pd.GroupID),
			ArtifactID: props.expand(pd.ArtifactID),
			Version:    props.expand(pd.Version),
			Classifier: props.expand(pd.Classifier),
			Scope:      scope,
		}
		if d.GroupID == "" || d.ArtifactID == "" {
			return nil, errors.NewParseFailure(format, 0, "dependency",
				"dependency #%d: groupId and artifactId are required", i+1)
		}
		if d.Version == "" {
			d.Version = managed[d.Coordinate()]
		}
		k := POM{}.Normalize(d).Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		entries = append(entries, d)
	}
	return entries, nil
}

// Normalize names the record by its Maven coordinate. Versions that still
// hold an unresolved ${...} reference are dropped.
func (POM) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(format, deps.Java, entry)
	d := entry.(Dependency)
	version := d.Version
	if strings.Contains(version, "${") {
		version = ""
	}
	return deps.Record{
		Ecosystem:  deps.Java,
		Name:       d.Coordinate(),
		Version:    version,
		Classifier: d.Classifier,
	}
}

// Link marks every dependency of the POM as direct.
func (p POM) Link(entries []deps.NativeEntry) deps.Hints {
	var hints deps.Hints
	for _, e := range entries {
		hints.Direct = append(hints.Direct, p.Normalize(e).Key())
	}
	return hints
}

var propertyRE = regexp.MustCompile(`\$\{([^}]+)\}`)

type properties map[string]string

// expand substitutes known ${name} references. References to unknown
// properties are left in place; substitution is repeated a bounded number of
// times so properties may refer to each other without looping forever.
func (p properties) expand(s string) string {
	s = strings.TrimSpace(s)
	for range 8 {
		if !strings.Contains(s, "${") {
			return s
		}
		next := propertyRE.ReplaceAllStringFunc(s, func(ref string) string {
			if v, ok := p[ref[2:len(ref)-1]]; ok {
				return v
			}
			return ref
		})
		if next == s {
			return s
		}
		s = next
	}
	return s
}

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Management   []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Classifier string `xml:"classifier"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// properties collects <properties> plus the project.* and parent.* built-ins.
// A project without its own groupId or version inherits the parent's.
func (p *pomProject) properties() properties {
	props := make(properties)
	for _, e := range p.Properties.Entries {
		props[e.XMLName.Local] = strings.TrimSpace(e.Value)
	}
	groupID, version := p.GroupID, p.Version
	if p.Parent != nil {
		props["project.parent.groupId"] = p.Parent.GroupID
		props["project.parent.version"] = p.Parent.Version
		props["parent.version"] = p.Parent.Version
		if groupID == "" {
			groupID = p.Parent.GroupID
		}
		if version == "" {
			version = p.Parent.Version
		}
	}
	props["project.groupId"] = groupID
	props["project.artifactId"] = p.ArtifactID
	props["project.version"] = version
	props["pom.version"] = version
	return props
}
