package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"heightfield/internal/terrain"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("store: run not found")

// Run describes one finished generation.
type Run struct {
	ID        uuid.UUID
	Seed      int64
	Map       terrain.Shape
	Chunk     terrain.Shape
	Fractal   terrain.Fractal
	Noise     string
	Workers   int
	Digest    uint64
	Path      string
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Index is a SQLite table of generation runs.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			map_rows INTEGER NOT NULL,
			map_cols INTEGER NOT NULL,
			chunk_rows INTEGER NOT NULL,
			chunk_cols INTEGER NOT NULL,
			frequency REAL NOT NULL,
			amplitude REAL NOT NULL,
			octaves INTEGER NOT NULL,
			lacunarity REAL NOT NULL,
			gain REAL NOT NULL,
			noise TEXT NOT NULL,
			workers INTEGER NOT NULL,
			digest TEXT NOT NULL,
			path TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS runs_seed ON runs(seed);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts r, assigning a random ID and the current time when unset.
func (x *Index) Record(ctx context.Context, r *Run) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := x.db.ExecContext(ctx, `INSERT INTO runs(
			id, seed, map_rows, map_cols, chunk_rows, chunk_cols,
			frequency, amplitude, octaves, lacunarity, gain,
			noise, workers, digest, path, elapsed_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID.String(), r.Seed, r.Map.Rows, r.Map.Cols, r.Chunk.Rows, r.Chunk.Cols,
		r.Fractal.Frequency, r.Fractal.Amplitude, r.Fractal.Octaves, r.Fractal.Lacunarity, r.Fractal.Gain,
		r.Noise, r.Workers, strconv.FormatUint(r.Digest, 16), r.Path, r.Elapsed.Milliseconds(), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

const runColumns = `id, seed, map_rows, map_cols, chunk_rows, chunk_cols,
	frequency, amplitude, octaves, lacunarity, gain,
	noise, workers, digest, path, elapsed_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var (
		r       Run
		id      string
		digest  string
		elapsed int64
		created int64
	)
	err := s.Scan(&id, &r.Seed, &r.Map.Rows, &r.Map.Cols, &r.Chunk.Rows, &r.Chunk.Cols,
		&r.Fractal.Frequency, &r.Fractal.Amplitude, &r.Fractal.Octaves, &r.Fractal.Lacunarity, &r.Fractal.Gain,
		&r.Noise, &r.Workers, &digest, &r.Path, &elapsed, &created)
	if err != nil {
		return r, err
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return r, fmt.Errorf("run id %q: %w", id, err)
	}
	if r.Digest, err = strconv.ParseUint(digest, 16, 64); err != nil {
		return r, fmt.Errorf("run %s digest: %w", id, err)
	}
	r.Elapsed = time.Duration(elapsed) * time.Millisecond
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

// Get returns the run with the given id.
func (x *Index) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := x.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// List returns up to limit runs, newest first. A limit below one lists all.
func (x *Index) List(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := x.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BySeed returns every run generated from seed, newest first.
func (x *Index) BySeed(ctx context.Context, seed int64) ([]Run, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE seed=? ORDER BY created_at DESC, id`, seed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}
