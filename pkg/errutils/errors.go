// Package errutils defines the error values shared across inkwell and small
// helpers for wrapping them with context. Callers compare with errors.Is.
//
// None of the acquisition errors are fatal to the process: at the operation
// boundary each of them collapses into "no handle produced", optionally carrying
// the error for callers that want to know why.
package errutils

import (
	"fmt"
)

// Acquisition errors.
var (
	// ErrCatalogFetch is returned when the remote catalog cannot be fetched,
	// has an unexpected status or content type, or its root cannot be parsed.
	ErrCatalogFetch = fmt.Errorf("catalog fetch failed")

	// ErrDownloadFailed is returned when a font file cannot be downloaded.
	ErrDownloadFailed = fmt.Errorf("download failed")

	// ErrVariantNotFound is returned when the catalog has no file for the
	// requested family and variant.
	ErrVariantNotFound = fmt.Errorf("variant not found")

	// ErrRegistration is returned when a local font file is rejected by the
	// rendering subsystem or its platform name cannot be persisted.
	ErrRegistration = fmt.Errorf("font registration failed")

	// ErrCancelled is reported by operations that were cancelled before they finished.
	ErrCancelled = fmt.Errorf("operation cancelled")

	// ErrQueueClosed is returned when work is submitted to a closed queue.
	ErrQueueClosed = fmt.Errorf("queue closed")

	// ErrCatalogNotFound is returned when no catalog snapshot is persisted.
	ErrCatalogNotFound = fmt.Errorf("catalog snapshot not found")

	// ErrNameCacheWrite is returned when the name cache cannot be persisted.
	ErrNameCacheWrite = fmt.Errorf("failed to write name cache")
)

// Identifier errors.
var (
	// ErrEmptyFamily is returned when an identifier has no family name.
	ErrEmptyFamily = fmt.Errorf("font family cannot be empty")

	// ErrInvalidVariant is returned for variant codes outside the supported scheme.
	ErrInvalidVariant = fmt.Errorf("invalid font variant")

	// ErrInvalidPath is returned when a file or directory path is invalid.
	ErrInvalidPath = fmt.Errorf("invalid path")
)

// Config errors.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// ErrUnsupportedConfigVersion is returned when format_version is outside the supported range.
	ErrUnsupportedConfigVersion = fmt.Errorf("unsupported config format version")

	ErrHTTPTimeoutNegative = fmt.Errorf("http_timeout cannot be negative")
	ErrRateLimitNegative   = fmt.Errorf("requests_per_second cannot be negative")
	ErrInvalidOutputFormat = fmt.Errorf("invalid output format")
	ErrInvalidLogLevel     = fmt.Errorf("invalid log level")
	ErrInvalidBackend      = fmt.Errorf("invalid name cache backend")
	ErrEmptyEndpoint       = fmt.Errorf("catalog endpoint cannot be empty")
	ErrUnknownConfigKey    = fmt.Errorf("unknown configuration key")
	ErrInvalidBoolValue    = fmt.Errorf("invalid boolean value")
)

// Wrap wraps an error with additional context.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errutils.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidVariantWithValue wraps ErrInvalidVariant with the rejected value.
func ErrInvalidVariantWithValue(value string) error {
	return fmt.Errorf("%w: %q, must be one of: regular, 700 (bold), italic, 700italic (bold-italic)", ErrInvalidVariant, value)
}

// ErrVariantNotFoundFor wraps ErrVariantNotFound with the identifier key.
func ErrVariantNotFoundFor(key string) error {
	return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidBackendWithDetails wraps ErrInvalidBackend with the rejected backend name.
func ErrInvalidBackendWithDetails(backend string) error {
	return fmt.Errorf("%w: '%s', must be one of: file, sqlite", ErrInvalidBackend, backend)
}

// ErrUnknownConfigKeyWithName wraps ErrUnknownConfigKey with the key.
func ErrUnknownConfigKeyWithName(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
}
