// Package cache persists compiled module interfaces so that modules outside
// the checked set can still be imported.
package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/funvibe/vellum/internal/symbols"
)

// ErrNotFound is returned by Get for a module that was never stored.
var ErrNotFound = errors.New("module interface not cached")

const schema = `
CREATE TABLE IF NOT EXISTS interfaces (
	module     TEXT PRIMARY KEY,
	package    TEXT NOT NULL,
	build_id   TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Entry is one cached interface.
type Entry struct {
	Module    string
	Package   string
	BuildID   string
	CreatedAt time.Time
	// Info is nil in listings.
	Info *symbols.TypeInfo
}

// Store is a sqlite database of module interfaces.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating when needed) the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating cache directory %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache %s", path)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "initialising cache %s", path)
	}
	logger.Debug("cache opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores info under its module name, replacing any previous entry, and
// returns the entry with a fresh build id.
func (s *Store) Put(ctx context.Context, info *symbols.TypeInfo) (*Entry, error) {
	payload, err := Encode(info)
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		Module:    info.Name,
		Package:   info.Package,
		BuildID:   uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Info:      info,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interfaces (module, package, build_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(module) DO UPDATE SET
		   package = excluded.package,
		   build_id = excluded.build_id,
		   payload = excluded.payload,
		   created_at = excluded.created_at`,
		entry.Module, entry.Package, entry.BuildID, payload, entry.CreatedAt.Unix())
	if err != nil {
		return nil, errors.Wrapf(err, "storing interface of %s", info.Name)
	}
	s.logger.Debug("interface cached",
		zap.String("module", entry.Module),
		zap.String("build_id", entry.BuildID),
		zap.Int("bytes", len(payload)))
	return entry, nil
}

// Get loads the interface of module.
func (s *Store) Get(ctx context.Context, module string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT package, build_id, payload, created_at FROM interfaces WHERE module = ?`, module)

	entry := &Entry{Module: module}
	var payload []byte
	var created int64
	if err := row.Scan(&entry.Package, &entry.BuildID, &payload, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, module)
		}
		return nil, errors.Wrapf(err, "loading interface of %s", module)
	}
	info, err := Decode(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding interface of %s", module)
	}
	entry.Info = info
	entry.CreatedAt = time.Unix(created, 0).UTC()
	return entry, nil
}

// List returns every cached entry without its payload, ordered by module.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module, package, build_id, created_at FROM interfaces ORDER BY module`)
	if err != nil {
		return nil, errors.Wrap(err, "listing cached interfaces")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Module, &e.Package, &e.BuildID, &created); err != nil {
			return nil, errors.Wrap(err, "listing cached interfaces")
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "listing cached interfaces")
}

// LoadAll decodes every cached interface, keyed by module name.
func (s *Store) LoadAll(ctx context.Context) (map[string]*symbols.TypeInfo, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make(map[string]*symbols.TypeInfo, len(entries))
	for _, e := range entries {
		full, err := s.Get(ctx, e.Module)
		if err != nil {
			return nil, err
		}
		infos[e.Module] = full.Info
	}
	return infos, nil
}

// Delete removes the interface of module. Deleting a missing module is not
// an error.
func (s *Store) Delete(ctx context.Context, module string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM interfaces WHERE module = ?`, module)
	return errors.Wrapf(err, "deleting interface of %s", module)
}
