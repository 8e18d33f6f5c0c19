// Package storage persists scan snapshots: the merged dependency graph of a
// project at one point in time, with enough metadata to list and compare
// them later.
//
// Two backends implement [Store]:
//   - [SQLiteStore]: a single database file under the user data directory
//     (CLI default)
//   - [MongoStore]: a shared MongoDB collection for teams and the HTTP server
//
// Snapshots are immutable once saved. IDs are random UUIDs; the graph
// fingerprint identifies identical content across snapshots.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
)

// Snapshot is one stored scan result.
type Snapshot struct {
	ID          string    `json:"id"`
	Project     string    `json:"project"`
	Root        string    `json:"root,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Fingerprint string    `json:"fingerprint"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	Failures    int       `json:"failures"`

	// Graph is nil in listings and set by Get.
	Graph *graph.Graph `json:"-"`
}

// NewSnapshot creates an unsaved snapshot of g with a fresh ID.
func NewSnapshot(project, root string, g *graph.Graph, failures int) *Snapshot {
	return &Snapshot{
		ID:          uuid.NewString(),
		Project:     project,
		Root:        root,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Fingerprint: graph.Fingerprint(g),
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		Failures:    failures,
		Graph:       g,
	}
}

// Store saves and retrieves snapshots. Implementations are safe for
// concurrent use.
type Store interface {
	// Save stores s. Saving an ID twice is an error.
	Save(ctx context.Context, s *Snapshot) error

	// Get returns the snapshot with the given ID, including its graph.
	// A missing snapshot yields an ErrCodeSnapshotNotFound error.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns snapshots newest first without their graphs. An empty
	// project lists every project; limit <= 0 means no limit.
	List(ctx context.Context, project string, limit int) ([]Snapshot, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	DSN      string // sqlite file path or mongodb:// URI
	Database string // mongo database name
}

// Open creates the backend named by opts.Backend. An empty backend selects
// SQLite at opts.DSN, or snapshots.db in DefaultDir when DSN is empty.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		path := opts.DSN
		if path == "" {
			dir, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "snapshots.db")
		}
		return OpenSQLite(path)
	case BackendMongo:
		return OpenMongo(ctx, opts.DSN, opts.Database)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig,
		"unknown store backend %q (want sqlite or mongo)", opts.Backend)
}

// DefaultDir returns $XDG_DATA_HOME/depscan, falling back to
// ~/.local/share/depscan.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "depscan"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "depscan"), nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %s not found", id)
}
