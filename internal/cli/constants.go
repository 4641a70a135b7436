package cli

import "time"

// Default values for CLI flags.
const (
	// DefaultFontSize is the point size faces are instantiated at.
	DefaultFontSize = 12.0
	// DefaultFetchTimeout bounds a single fetch command.
	DefaultFetchTimeout = 2 * time.Minute
	// MaxURLLength is the maximum length of a file URL shown in tables.
	MaxURLLength = 72
)
