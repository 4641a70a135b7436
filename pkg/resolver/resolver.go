// Package resolver maps identifiers to platform names without touching the
// network or the font files.
package resolver

import (
	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/platform"
	"github.com/cperrin88/inkwell/pkg/storage"
)

// Resolver looks an identifier up in the name cache and falls back to the
// variant heuristic over fonts already known to the platform.
type Resolver struct {
	names storage.NameCache
	fonts platform.Enumerator
}

// New returns a Resolver. fonts may be nil to disable the heuristic.
func New(names storage.NameCache, fonts platform.Enumerator) *Resolver {
	return &Resolver{names: names, fonts: fonts}
}

// Resolve returns the platform name for id, or false when none is known.
func (r *Resolver) Resolve(id font.Identifier) (string, bool) {
	if name, ok := r.names.PostscriptName(id); ok {
		return name, true
	}
	if r.fonts == nil {
		return "", false
	}

	name, ok := font.MatchVariant(id.Family, r.fonts.FontNames(id.Family), id.Variant)
	if ok {
		logger.Debug("Resolved font by heuristic", logger.Fields{"key": id.Key(), "name": name})
	}
	return name, ok
}
