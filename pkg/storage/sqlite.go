package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/fsutil"

	_ "modernc.org/sqlite"
)

// SQLiteNameCache stores the mapping in a sqlite database.
type SQLiteNameCache struct {
	db *sql.DB
}

// OpenSQLiteNameCache opens (creating if needed) the database at path.
func OpenSQLiteNameCache(path string) (*SQLiteNameCache, error) {
	if err := fsutil.EnsureFileDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to open sqlite name cache")
	}
	db.SetMaxOpenConns(1)
	c := &SQLiteNameCache{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, errutils.Wrap(err, "failed to init sqlite name cache")
	}
	return c, nil
}

func (c *SQLiteNameCache) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS names (
		key TEXT PRIMARY KEY,
		postscript_name TEXT NOT NULL
	);`
	_, err := c.db.ExecContext(context.Background(), query)
	return err
}

func (c *SQLiteNameCache) PostscriptName(id font.Identifier) (string, bool) {
	var name string
	err := c.db.QueryRowContext(context.Background(),
		`SELECT postscript_name FROM names WHERE key = ?`, id.Key()).Scan(&name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("Name cache lookup failed", logger.Fields{"key": id.Key(), "error": err})
		}
		return "", false
	}
	return name, true
}

func (c *SQLiteNameCache) SetPostscriptName(id font.Identifier, name string) error {
	_, err := c.db.ExecContext(context.Background(), `
		INSERT INTO names (key, postscript_name) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET postscript_name = excluded.postscript_name`,
		id.Key(), name)
	if err != nil {
		return errutils.Wrap(errutils.ErrNameCacheWrite, err.Error())
	}
	return nil
}

func (c *SQLiteNameCache) Entries() (map[string]string, error) {
	rows, err := c.db.QueryContext(context.Background(), `SELECT key, postscript_name FROM names`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (c *SQLiteNameCache) Close() error {
	return c.db.Close()
}
