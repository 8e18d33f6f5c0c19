package graph

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Document is the serialization format for graphs, used for files, API
// responses, cache entries and stored snapshots.
//
// Nodes are identified by [NodeIDs]; edges refer to those identifiers. Nodes and edges are sorted, so equal graphs encode to equal
// bytes.
type Document struct {
	Ecosystem deps.Ecosystem `json:"ecosystem,omitempty" yaml:"ecosystem,omitempty" bson:"ecosystem,omitempty" msgpack:"ecosystem,omitempty"`
	Nodes     []DocumentNode `json:"nodes" yaml:"nodes" bson:"nodes" msgpack:"nodes"`
	Edges     []DocumentEdge `json:"edges" yaml:"edges" bson:"edges" msgpack:"edges"`
}

// DocumentNode is the serialized form of a [Node].
type DocumentNode struct {
	ID          string `json:"id" yaml:"id" bson:"id" msgpack:"id"`
	deps.Record `yaml:",inline" bson:",inline" msgpack:",inline"`
	Direct      bool     `json:"direct,omitempty" yaml:"direct,omitempty" bson:"direct,omitempty" msgpack:"direct,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty" yaml:"placeholder,omitempty" bson:"placeholder,omitempty" msgpack:"placeholder,omitempty"`
	Sources     []Source `json:"sources,omitempty" yaml:"sources,omitempty" bson:"sources,omitempty" msgpack:"sources,omitempty"`
}

// DocumentEdge is the serialized form of an [Edge].
type DocumentEdge struct {
	From string `json:"from" yaml:"from" bson:"from" msgpack:"from"`
	To   string `json:"to" yaml:"to" bson:"to" msgpack:"to"`
}

// NodeIDs assigns every node of g a unique identifier: the string form of its
// key, with a "#2", "#3", ... suffix when two keys print the same (a name
// containing "@" next to a version). Nodes are visited in sorted order, so the
// assignment is stable.
func NodeIDs(g *Graph) map[deps.Key]string {
	ids := make(map[deps.Key]string, g.NodeCount())
	used := make(map[string]bool, g.NodeCount())
	for _, n := range g.Nodes() {
		k := n.Key()
		id := k.String()
		for i := 2; used[id]; i++ {
			id = fmt.Sprintf("%s#%d", k, i)
		}
		used[id] = true
		ids[k] = id
	}
	return ids
}

// ToDocument converts g to its serialization format.
func ToDocument(g *Graph) Document {
	ids := NodeIDs(g)
	doc := Document{
		Ecosystem: g.Ecosystem(),
		Nodes:     make([]DocumentNode, 0, g.NodeCount()),
		Edges:     make([]DocumentEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, DocumentNode{
			ID:          ids[n.Key()],
			Record:      n.Record,
			Direct:      n.Direct,
			Placeholder: n.Placeholder,
			Sources:     n.Provenance,
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, DocumentEdge{From: ids[e.From], To: ids[e.To]})
	}
	return doc
}

// FromDocument validates doc and converts it to a graph. Node identifiers
// must be unique and every edge must refer to a node of the document.
func FromDocument(doc Document) (*Graph, error) {
	if doc.Ecosystem != "" && !doc.Ecosystem.Valid() {
		return nil, fmt.Errorf("unknown ecosystem %q", doc.Ecosystem)
	}

	byID := make(map[string]deps.Key, len(doc.Nodes))
	nodes := make(map[deps.Key]*Node, len(doc.Nodes))
	for i, dn := range doc.Nodes {
		if !dn.Ecosystem.Valid() {
			return nil, fmt.Errorf("node %d (%s): unknown ecosystem %q", i, dn.ID, dn.Ecosystem)
		}
		if dn.Name == "" {
			return nil, fmt.Errorf("node %d (%s): name is required", i, dn.ID)
		}
		k := dn.Key()
		id := dn.ID
		if id == "" {
			id = k.String()
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("duplicate node id %q", id)
		}
		if _, dup := nodes[k]; dup {
			return nil, fmt.Errorf("duplicate node %s", k)
		}
		byID[id] = k
		sources := slices.Clone(dn.Sources)
		slices.SortFunc(sources, compareSources)
		nodes[k] = &Node{
			Record:      dn.Record,
			Direct:      dn.Direct,
			Placeholder: dn.Placeholder,
			Provenance:  slices.Compact(sources),
		}
	}

	edges := make(map[Edge]struct{}, len(doc.Edges))
	for _, de := range doc.Edges {
		from, ok := byID[de.From]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown source node", de.From, de.To)
		}
		to, ok := byID[de.To]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown target node", de.From, de.To)
		}
		edges[Edge{From: from, To: to}] = struct{}{}
	}
	return newGraph(doc.Ecosystem, nodes, edges), nil
}

// Encoding selects a document serialization.
type Encoding string

const (
	JSON    Encoding = "json"
	YAML    Encoding = "yaml"
	MsgPack Encoding = "msgpack"
	BSON    Encoding = "bson"
)

// ParseEncoding accepts json, yaml/yml, msgpack and bson.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "msgpack":
		return MsgPack, nil
	case "bson":
		return BSON, nil
	}
	return "", fmt.Errorf("unknown encoding %q (want json, yaml, msgpack or bson)", s)
}

// Marshal encodes g as a document.
func Marshal(g *Graph, enc Encoding) ([]byte, error) {
	doc := ToDocument(g)
	switch enc {
	case JSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case YAML:
		return yaml.Marshal(doc)
	case MsgPack:
		return msgpack.Marshal(doc)
	case BSON:
		return bson.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// Unmarshal decodes a document and converts it to a graph.
func Unmarshal(data []byte, enc Encoding) (*Graph, error) {
	var doc Document
	var err error
	switch enc {
	case JSON, "":
		err = json.Unmarshal(data, &doc)
	case YAML:
		err = yaml.Unmarshal(data, &doc)
	case MsgPack:
		err = msgpack.Unmarshal(data, &doc)
	case BSON:
		err = bson.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", enc, err)
	}
	return FromDocument(doc)
}

// WriteGraph writes g as indented JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	data, err := Marshal(g, JSON)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ReadGraph decodes a JSON document from r.
func ReadGraph(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromDocument(doc)
}

// WriteGraphFile writes g to path, choosing YAML for .yaml/.yml files and
// JSON otherwise.
func WriteGraphFile(g *Graph, path string) error {
	data, err := Marshal(g, encodingFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadGraphFile reads a graph written by WriteGraphFile.
func ReadGraphFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := Unmarshal(data, encodingFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func encodingFor(path string) Encoding {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return YAML
	}
	return JSON
}

// Fingerprint returns a BLAKE3 digest of g's canonical JSON encoding. Equal
// graphs have equal fingerprints.
func Fingerprint(g *Graph) string {
	var buf bytes.Buffer
	// Document fields are plain data; encoding cannot fail.
	_ = json.NewEncoder(&buf).Encode(ToDocument(g))
	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
