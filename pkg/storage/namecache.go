package storage

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/fsutil"
)

// NameCache maps identifier keys to platform PostScript names.
type NameCache interface {
	PostscriptName(id font.Identifier) (string, bool)
	SetPostscriptName(id font.Identifier, name string) error
	Entries() (map[string]string, error)
}

// FileNameCache keeps the mapping in a flat JSON object. The file is read
// once on first use and rewritten atomically on every update.
type FileNameCache struct {
	path string

	mu      sync.RWMutex
	loaded  bool
	entries map[string]string
}

// NewFileNameCache returns a cache backed by the file at path.
func NewFileNameCache(path string) *FileNameCache {
	return &FileNameCache{path: path}
}

// ensureLoaded must be called with mu held for writing.
func (c *FileNameCache) ensureLoaded() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.entries = map[string]string{}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read name cache", logger.Fields{"path": c.path, "error": err})
		}
		return
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warn("Ignoring unreadable name cache", logger.Fields{"path": c.path, "error": err})
		c.entries = map[string]string{}
	}
}

func (c *FileNameCache) load() {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}
	c.mu.Lock()
	c.ensureLoaded()
	c.mu.Unlock()
}

// PostscriptName returns the cached platform name for id.
func (c *FileNameCache) PostscriptName(id font.Identifier) (string, bool) {
	c.load()
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.entries[id.Key()]
	return name, ok
}

// SetPostscriptName records name for id and persists the whole mapping.
// The in-memory entry is only updated when the write succeeds.
func (c *FileNameCache) SetPostscriptName(id font.Identifier, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded()

	next := make(map[string]string, len(c.entries)+1)
	for k, v := range c.entries {
		next[k] = v
	}
	next[id.Key()] = name

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return errutils.Wrap(errutils.ErrNameCacheWrite, err.Error())
	}
	if err := fsutil.AtomicWriteFile(c.path, data, fsutil.FileModeDefault); err != nil {
		return errutils.Wrapf(errutils.ErrNameCacheWrite, "%s: %v", c.path, err)
	}
	c.entries = next
	return nil
}

// Entries returns a copy of all cached mappings.
func (c *FileNameCache) Entries() (map[string]string, error) {
	c.load()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out, nil
}

// Name cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// OpenNameCache opens the name cache for backend inside the storage root.
// An empty backend selects BackendFile.
func (s *Storage) OpenNameCache(backend string) (NameCache, error) {
	switch backend {
	case "", BackendFile:
		return NewFileNameCache(s.NameCachePath()), nil
	case BackendSQLite:
		return OpenSQLiteNameCache(s.NameCacheDBPath())
	default:
		return nil, errutils.ErrInvalidBackendWithDetails(backend)
	}
}
