// Package storage owns inkwell's on-disk state: downloaded font files, the
// persisted catalog snapshot and the name cache.
//
// Layout under the storage root:
//
//	fonts/<family>-<variant>.ttf
//	catalog.json
//	names.json   (or names.db for the sqlite backend)
package storage

import (
	"os"
	"path/filepath"

	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/fsutil"
)

const (
	FontsDirName      = "fonts"
	CatalogFileName   = "catalog.json"
	NameCacheFileName = "names.json"
	NameCacheDBName   = "names.db"
)

// Storage resolves deterministic paths under a root directory.
type Storage struct {
	root string
}

// New returns a Storage rooted at root. The directory is created lazily.
func New(root string) (*Storage, error) {
	if root == "" {
		return nil, errutils.Wrap(errutils.ErrInvalidPath, "storage root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to resolve storage root %s", root)
	}
	return &Storage{root: abs}, nil
}

// NewDefault returns a Storage in the per-user data directory.
func NewDefault() (*Storage, error) {
	dir, err := fsutil.GetDataDir()
	if err != nil {
		return nil, err
	}
	return New(dir)
}

func (s *Storage) Root() string          { return s.root }
func (s *Storage) FontsDir() string      { return filepath.Join(s.root, FontsDirName) }
func (s *Storage) CatalogPath() string   { return filepath.Join(s.root, CatalogFileName) }
func (s *Storage) NameCachePath() string { return filepath.Join(s.root, NameCacheFileName) }
func (s *Storage) NameCacheDBPath() string {
	return filepath.Join(s.root, NameCacheDBName)
}

// FontPath is the deterministic location of the identifier's font file.
func (s *Storage) FontPath(id font.Identifier) string {
	return filepath.Join(s.FontsDir(), id.Filename())
}

// FileExists reports whether the identifier's font file is on disk.
func (s *Storage) FileExists(id font.Identifier) bool {
	return fsutil.FileExists(s.FontPath(id))
}

// ReadFont returns the bytes of the identifier's font file.
func (s *Storage) ReadFont(id font.Identifier) ([]byte, error) {
	data, err := os.ReadFile(s.FontPath(id))
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to read font file for %s", id.Key())
	}
	return data, nil
}

// CatalogExists reports whether a catalog snapshot is persisted.
func (s *Storage) CatalogExists() bool {
	return fsutil.FileExists(s.CatalogPath())
}

// ReadCatalog returns the raw persisted snapshot.
func (s *Storage) ReadCatalog() ([]byte, error) {
	data, err := os.ReadFile(s.CatalogPath())
	if os.IsNotExist(err) {
		return nil, errutils.ErrCatalogNotFound
	}
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read catalog snapshot")
	}
	return data, nil
}

// WriteCatalog replaces the persisted snapshot wholesale.
func (s *Storage) WriteCatalog(data []byte) error {
	if err := fsutil.AtomicWriteFile(s.CatalogPath(), data, fsutil.FileModeDefault); err != nil {
		return errutils.Wrap(err, "failed to write catalog snapshot")
	}
	return nil
}

// RemoveCatalog deletes the persisted snapshot. Removing a missing snapshot is not an error.
func (s *Storage) RemoveCatalog() error {
	if err := os.Remove(s.CatalogPath()); err != nil && !os.IsNotExist(err) {
		return errutils.Wrap(err, "failed to remove catalog snapshot")
	}
	return nil
}
