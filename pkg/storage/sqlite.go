package storage

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
)

//go:embed schema.sql
var schemaSQL string

//go:embed pragmas.sql
var pragmasSQL string

// SQLiteStore keeps snapshots in a SQLite database. Graphs are stored as
// JSON documents.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create database directory")
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open sqlite")
	}

	for _, pragma := range strings.Split(pragmasSQL, "\n") {
		pragma = strings.TrimSpace(pragma)
		if pragma == "" || strings.HasPrefix(pragma, "--") {
			continue
		}
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "apply pragma %q", pragma)
		}
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "apply schema")
	}
	return &SQLiteStore{conn: conn, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := graph.Marshal(snap.Graph, graph.JSON)
	if err != nil {
		return fmt.Errorf("encode snapshot graph: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO snapshots (id, project, root, created_at, fingerprint, nodes, edges, failures, graph)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Project, snap.Root, snap.CreatedAt.UnixMilli(),
		snap.Fingerprint, snap.Nodes, snap.Edges, snap.Failures, data,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "insert snapshot %s", snap.ID)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var (
		snap Snapshot
		ts   int64
		data []byte
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, project, root, created_at, fingerprint, nodes, edges, failures, graph
		 FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.ID, &snap.Project, &snap.Root, &ts, &snap.Fingerprint,
		&snap.Nodes, &snap.Edges, &snap.Failures, &data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "query snapshot %s", id)
	}
	snap.CreatedAt = time.UnixMilli(ts).UTC()
	if snap.Graph, err = graph.Unmarshal(data, graph.JSON); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode snapshot %s", id)
	}
	return &snap, nil
}

func (s *SQLiteStore) List(ctx context.Context, project string, limit int) ([]Snapshot, error) {
	query := `SELECT id, project, root, created_at, fingerprint, nodes, edges, failures FROM snapshots`
	var args []any
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap Snapshot
			ts   int64
		)
		if err := rows.Scan(&snap.ID, &snap.Project, &snap.Root, &ts, &snap.Fingerprint,
			&snap.Nodes, &snap.Edges, &snap.Failures); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan snapshot row")
		}
		snap.CreatedAt = time.UnixMilli(ts).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
