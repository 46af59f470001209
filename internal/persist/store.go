package persist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mrsinham/calciumforge/internal/logging"
	_ "modernc.org/sqlite" // SQLite driver
)

// Option configures Save and Load.
type Option func(*config)

type config struct {
	rules  []Rule
	logger *slog.Logger
}

// WithRules replaces DefaultRules.
func WithRules(rules []Rule) Option {
	return func(c *config) { c.rules = rules }
}

// WithLogger sets the logger used to report skipped and coerced keys.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func newConfig(opts []Option) *config {
	c := &config{
		rules:  DefaultRules,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func openDB(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Save writes m to filename, replacing any existing file. The mapping is
// fully encoded before anything touches the disk, so an unsupported value
// leaves no file behind; a failure while writing removes the partial file.
func Save(ctx context.Context, filename string, m map[string]any, opts ...Option) error {
	cfg := newConfig(opts)
	enc := &encoder{rules: cfg.rules, logger: cfg.logger}
	if err := enc.mapping("", m); err != nil {
		return err
	}

	tmp := filename + ".partial"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear %s: %w", tmp, err)
	}
	if err := writeEntries(ctx, tmp, enc.entries); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move store into place: %w", err)
	}

	cfg.logger.Debug("saved mapping", "file", filename, "entries", len(enc.entries))
	return nil
}

func writeEntries(ctx context.Context, filename string, entries []entry) error {
	db, err := openDB(filename)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := InitSchema(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (path, kind, shape, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, e.Kind, e.Shape, e.Data); err != nil {
			return fmt.Errorf("failed to insert %q: %w", e.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return db.Close()
}

// Load reads a mapping written by Save. Integers come back as int64,
// float32 as float64, vectors as []float64, parameter objects as
// map[string]any, tuple-rule keys as Tuple and sparse matrices as *SparseCSC.
func Load(ctx context.Context, filename string, opts ...Option) (map[string]any, error) {
	cfg := newConfig(opts)
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	db, err := openDB(filename)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := checkSchema(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT path, kind, COALESCE(shape, ''), data FROM entries ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.Path, &e.Kind, &e.Shape, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	m, err := rebuild(entries)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("loaded mapping", "file", filename, "entries", len(entries))
	return m, nil
}

func splitPath(p string) (parent, name string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

type sparseParts struct {
	data            []float64
	indices, indptr []int64
	shape           []int64
}

func (sp *sparseParts) set(e entry) error {
	_, name := splitPath(e.Path)
	var err error
	switch name {
	case sparseData:
		sp.data, err = decodeFloats(e.Data)
	case sparseIndices:
		sp.indices, err = decodeInts(e.Data)
	case sparseIndptr:
		sp.indptr, err = decodeInts(e.Data)
	case sparseShape:
		sp.shape, err = decodeInts(e.Data)
	default:
		err = fmt.Errorf("%w: unexpected sparse component %q", ErrCorruptStore, e.Path)
	}
	return err
}

func (sp *sparseParts) build() (*SparseCSC, error) {
	if len(sp.shape) != 2 {
		return nil, fmt.Errorf("%w: sparse matrix without shape", ErrCorruptStore)
	}
	s := &SparseCSC{
		Rows:    int(sp.shape[0]),
		Cols:    int(sp.shape[1]),
		Data:    sp.data,
		Indices: sp.indices,
		Indptr:  sp.indptr,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild turns path-ordered rows back into the nested mapping.
func rebuild(entries []entry) (map[string]any, error) {
	root := map[string]any{}
	groups := map[string]map[string]any{"": root}
	sparse := map[string]*sparseParts{}
	var sparseOrder []string

	for _, e := range entries {
		parent, name := splitPath(e.Path)
		if sp, ok := sparse[parent]; ok {
			if err := sp.set(e); err != nil {
				return nil, err
			}
			continue
		}
		g, ok := groups[parent]
		if !ok {
			return nil, fmt.Errorf("%w: %q has no parent group", ErrCorruptStore, e.Path)
		}

		switch e.Kind {
		case kindGroup:
			child := map[string]any{}
			groups[e.Path] = child
			g[name] = child
		case kindSparse:
			sparse[e.Path] = &sparseParts{}
			sparseOrder = append(sparseOrder, e.Path)
		default:
			v, err := decode(e)
			if err != nil {
				return nil, err
			}
			g[name] = v
		}
	}

	for _, p := range sparseOrder {
		s, err := sparse[p].build()
		if err != nil {
			return nil, fmt.Errorf("sparse %q: %w", p, err)
		}
		parent, name := splitPath(p)
		groups[parent][name] = s
	}
	return root, nil
}
