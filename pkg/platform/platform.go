// Package platform is the font rendering and registration subsystem inkwell
// hands resolved names to. The core only sees the interfaces; Library is an
// in-process implementation backed by golang.org/x/image.
package platform

import (
	"errors"

	"golang.org/x/image/font"
)

var (
	// ErrAlreadyRegistered is returned when a font with the same PostScript name is registered.
	ErrAlreadyRegistered = errors.New("font already registered")
	// ErrInvalidFont is returned for bytes that do not parse as a font.
	ErrInvalidFont = errors.New("invalid font data")
	// ErrNotRegistered is returned when unregistering an unknown name.
	ErrNotRegistered = errors.New("font not registered")
)

// Renderer turns a platform name into a renderable face.
type Renderer interface {
	Instantiate(name string, size float64) (font.Face, bool)
}

// Enumerator lists platform names registered under a family.
type Enumerator interface {
	FontNames(family string) []string
}

// Registry makes font files available to the Renderer.
type Registry interface {
	Enumerator
	Register(data []byte) (string, error)
	Unregister(name string) error
}

// Platform is the full subsystem.
type Platform interface {
	Renderer
	Registry
}
