package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/depscan/pkg/buildinfo"
	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/scan"
	"github.com/matzehuels/depscan/pkg/storage"
)

var contentTypes = map[graph.Encoding]string{
	graph.JSON:    "application/json",
	graph.YAML:    "application/yaml",
	graph.MsgPack: "application/msgpack",
	graph.BSON:    "application/bson",
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

// FormatInfo describes one registered format.
type FormatInfo struct {
	Format    string         `json:"format"`
	Ecosystem deps.Ecosystem `json:"ecosystem"`
	Patterns  []string       `json:"patterns"`
	Default   bool           `json:"default,omitempty"`
	Declarer  bool           `json:"declarer,omitempty"`
}

func (s *Server) formats(w http.ResponseWriter, r *http.Request) {
	var out []FormatInfo
	for _, l := range s.registry.Languages() {
		for _, p := range l.Parsers {
			out = append(out, FormatInfo{
				Format:    p.Format(),
				Ecosystem: l.Name,
				Patterns:  p.Patterns(),
				Default:   p.Format() == l.DefaultFormat,
			})
		}
		for _, d := range l.Declarers {
			out = append(out, FormatInfo{Format: d.Format(), Ecosystem: l.Name, Patterns: d.Patterns(), Declarer: true})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"formats": out})
}

// ParseResponse is returned by /v1/parse/{format}.
type ParseResponse struct {
	Format    string         `json:"format"`
	Ecosystem deps.Ecosystem `json:"ecosystem"`
	Records   []deps.Record  `json:"records"`
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Lookup(chi.URLParam(r, "format"))
	if err != nil {
		writeErr(w, err)
		return
	}
	text, err := s.readText(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	entries, err := p.Parse(text)
	if err != nil {
		writeErr(w, err)
		return
	}
	records := deps.NormalizeAll(p, entries)
	if records == nil {
		records = []deps.Record{}
	}
	writeJSON(w, http.StatusOK, ParseResponse{Format: p.Format(), Ecosystem: p.Ecosystem(), Records: records})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Lookup(chi.URLParam(r, "format"))
	if err != nil {
		writeErr(w, err)
		return
	}
	enc, err := negotiate(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	q := r.URL.Query()
	selectors, err := graph.ParseSelectors(q["direct"])
	if err != nil {
		writeErr(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "%v", err))
		return
	}
	if err := validateSourcePath(q.Get("path")); err != nil {
		writeErr(w, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeErr(w, err)
		return
	}

	source := graph.Source{Path: q.Get("path"), Format: p.Format()}
	g, _, err := s.scanner.ParseBytes(r.Context(), p, source, data, q.Has("refresh"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeGraph(w, graph.WithDirect(g, selectors...), enc)
}

// MergeRequest is the body of /v1/merge.
type MergeRequest struct {
	Graphs []graph.Document `json:"graphs"`
}

func (s *Server) merge(w http.ResponseWriter, r *http.Request) {
	enc, err := negotiate(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req MergeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&req); err != nil {
		writeErr(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body: %v", err))
		return
	}

	graphs := make([]*graph.Graph, 0, len(req.Graphs))
	for i, doc := range req.Graphs {
		g, err := graph.FromDocument(doc)
		if err != nil {
			writeErr(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph %d: %v", i, err))
			return
		}
		graphs = append(graphs, g)
	}
	writeGraph(w, graph.MergeAll(graphs...), enc)
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	project := r.URL.Query().Get("project")
	if project != "" {
		if err := errors.ValidatePackageName(project); err != nil {
			writeErr(w, err)
			return
		}
	}
	snaps, err := s.store.List(r.Context(), project, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if snaps == nil {
		snaps = []storage.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

// SnapshotResponse is a snapshot together with its graph document.
type SnapshotResponse struct {
	*storage.Snapshot
	Document graph.Document `json:"graph"`
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotResponse{Snapshot: snap, Document: graph.ToDocument(snap.Graph)})
}

// readText reads the request body and decodes it as UTF-8 text.
func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return "", err
	}
	return scan.Decode(data)
}

// negotiate picks the response encoding from ?encoding= or the Accept
// header. Unrecognized Accept values fall back to JSON.
func negotiate(r *http.Request) (graph.Encoding, error) {
	if v := r.URL.Query().Get("encoding"); v != "" {
		enc, err := graph.ParseEncoding(v)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "%v", err)
		}
		return enc, nil
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		for enc, ct := range contentTypes {
			if mt == ct {
				return enc, nil
			}
		}
		if mt == "application/x-yaml" || mt == "text/yaml" {
			return graph.YAML, nil
		}
	}
	return graph.JSON, nil
}

func writeGraph(w http.ResponseWriter, g *graph.Graph, enc graph.Encoding) {
	data, err := graph.Marshal(g, enc)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[enc])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// validateSourcePath checks the optional project-relative path recorded as
// provenance of an uploaded file.
func validateSourcePath(p string) error {
	if p == "" {
		return nil
	}
	if err := errors.ValidatePath(p); err != nil {
		return err
	}
	return errors.ValidateManifestFilename(path.Base(p))
}
