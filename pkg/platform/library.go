package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/cperrin88/inkwell/internal/logger"
)

const defaultDPI = 72

type entry struct {
	font     *sfnt.Font
	families []string
}

// Library keeps parsed fonts in memory keyed by PostScript name.
type Library struct {
	mu    sync.RWMutex
	fonts map[string]entry
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{fonts: map[string]entry{}}
}

// Register parses data and makes it available under its PostScript name.
func (l *Library) Register(data []byte) (string, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}

	var buf sfnt.Buffer
	name, err := f.Name(&buf, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		return "", fmt.Errorf("%w: missing PostScript name", ErrInvalidFont)
	}

	var families []string
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDTypographicFamily} {
		if fam, err := f.Name(&buf, id); err == nil && fam != "" {
			families = append(families, fam)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.fonts[name]; ok {
		return "", fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	l.fonts[name] = entry{font: f, families: families}
	return name, nil
}

// Unregister removes name from the library.
func (l *Library) Unregister(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.fonts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	delete(l.fonts, name)
	return nil
}

// FontNames returns the sorted PostScript names whose family matches, ignoring case and spaces.
func (l *Library) FontNames(family string) []string {
	want := normalizeFamily(family)
	l.mu.RLock()
	defer l.mu.RUnlock()

	var names []string
	for name, e := range l.fonts {
		for _, fam := range e.families {
			if normalizeFamily(fam) == want {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Names returns every registered PostScript name, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.fonts))
	for name := range l.fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate returns a face for name at size points.
func (l *Library) Instantiate(name string, size float64) (font.Face, bool) {
	l.mu.RLock()
	e, ok := l.fonts[name]
	l.mu.RUnlock()
	if !ok || size <= 0 {
		return nil, false
	}

	face, err := opentype.NewFace(e.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     defaultDPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		logger.Warn("Failed to instantiate face", logger.Fields{"name": name, "error": err})
		return nil, false
	}
	return face, true
}

// LoadDir registers every .ttf and .otf file below dir and returns how many were added.
// Files that fail to parse or are already registered are skipped.
func (l *Library) LoadDir(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isFontFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name, err := l.Register(data)
		switch {
		case err == nil:
			count++
			logger.Debug("Registered system font", logger.Fields{"name": name, "path": path})
		case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrInvalidFont):
			logger.Debug("Skipping font file", logger.Fields{"path": path, "reason": err.Error()})
		default:
			return err
		}
		return nil
	})
	return count, err
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

func normalizeFamily(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}
