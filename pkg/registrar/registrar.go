// Package registrar registers downloaded font files with the platform and
// records the assigned name in the name cache.
package registrar

import (
	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/platform"
	"github.com/cperrin88/inkwell/pkg/storage"
)

// FontSource reads the local font file for an identifier.
type FontSource interface {
	FileExists(id font.Identifier) bool
	ReadFont(id font.Identifier) ([]byte, error)
}

// Registrar keeps platform registration and name cache entries consistent:
// a font stays registered only if its name was persisted.
type Registrar struct {
	files    FontSource
	registry platform.Registry
	names    storage.NameCache
}

func New(files FontSource, registry platform.Registry, names storage.NameCache) *Registrar {
	return &Registrar{files: files, registry: registry, names: names}
}

// Register registers id's local file and reports whether it succeeded.
// A missing file, a rejected font or a failed name cache write all return false.
func (r *Registrar) Register(id font.Identifier) bool {
	log := logger.With(logger.Fields{"key": id.Key()})

	if !r.files.FileExists(id) {
		log.Debug("No local font file to register")
		return false
	}
	data, err := r.files.ReadFont(id)
	if err != nil {
		log.Warn("Failed to read font file", "error", err)
		return false
	}

	name, err := r.registry.Register(data)
	if err != nil {
		log.Warn("Font registration rejected", "error", err)
		return false
	}

	if err := r.names.SetPostscriptName(id, name); err != nil {
		log.Warn("Failed to persist platform name, rolling back", "name", name, "error", err)
		if uerr := r.registry.Unregister(name); uerr != nil {
			log.Error("Rollback failed", "name", name, "error", uerr)
		}
		return false
	}

	log.Debug("Registered font", "name", name)
	return true
}
