package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"mdindex/internal/domain"
)

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	filename TEXT PRIMARY KEY,
	path     TEXT,
	mtime    REAL,
	keywords TEXT
)`

// addedColumns are appended to older databases that lack them, in order.
var addedColumns = []struct {
	name string
	ddl  string
}{
	{"content", "ALTER TABLE files ADD COLUMN content TEXT"},
	{"language", "ALTER TABLE files ADD COLUMN language TEXT"},
}

// SQLiteStore keeps records in a single "files" table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and adds any
// missing columns.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createFilesTable); err != nil {
		return fmt.Errorf("creating files table: %w", err)
	}

	columns, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, col := range addedColumns {
		if have[col.name] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("adding column %s: %w", col.name, err)
		}
	}
	return nil
}

// Columns returns the column names of the files table.
func (s *SQLiteStore) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(files)")
	if err != nil {
		return nil, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning table info: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

const selectRecord = `SELECT filename, path, mtime, keywords, content, language FROM files`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var (
		rec      domain.Record
		path     sql.NullString
		mtime    sql.NullFloat64
		keywords sql.NullString
		content  sql.NullString
		language sql.NullString
	)
	if err := row.Scan(&rec.Name, &path, &mtime, &keywords, &content, &language); err != nil {
		return domain.Record{}, err
	}
	rec.Path = path.String
	rec.ModTime = mtime.Float64
	rec.Keywords = domain.SplitKeywords(keywords.String)
	rec.Content = content.String
	rec.HasContent = content.Valid
	rec.Language = language.String
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (domain.Record, bool, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+" WHERE filename = ?", name))
	if err == sql.ErrNoRows {
		return domain.Record{}, false, nil
	}
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("getting record %s: %w", name, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+" ORDER BY filename")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, rec domain.Record) error {
	var content any
	if rec.HasContent {
		content = rec.Content
	}
	var language any
	if rec.Language != "" {
		language = rec.Language
	}
	_, err := s.db.ExecContext(ctx,
		`REPLACE INTO files (filename, path, mtime, keywords, content, language) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Path, rec.ModTime, domain.JoinKeywords(rec.Keywords), content, language)
	if err != nil {
		return fmt.Errorf("storing record %s: %w", rec.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE filename = ?", name); err != nil {
		return fmt.Errorf("deleting record %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteMissing(ctx context.Context, observed map[string]struct{}) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, "SELECT filename FROM files ORDER BY filename")
	if err != nil {
		return nil, fmt.Errorf("listing names: %w", err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		if _, ok := observed[name]; !ok {
			stale = append(stale, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(stale) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stale)), ",")
		args := make([]any, len(stale))
		for i, name := range stale {
			args[i] = name
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE filename IN ("+placeholders+")", args...); err != nil {
			return nil, fmt.Errorf("deleting stale records: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cleanup: %w", err)
	}
	return stale, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
