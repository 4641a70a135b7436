// Package config provides configuration management for inkwell.
// It loads, validates and saves the YAML configuration file and fills in
// sensible defaults for everything the file leaves out. The catalog API key
// may also come from the INKWELL_API_KEY environment variable.
package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/inkwell/pkg/catalog"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/fsutil"
	"github.com/cperrin88/inkwell/pkg/platform"
	"github.com/cperrin88/inkwell/pkg/storage"
)

// Config represents the application configuration.
type Config struct {
	// FormatVersion is the schema version of the file.
	FormatVersion string `yaml:"format_version"`

	Catalog  CatalogConfig `yaml:"catalog"`
	Settings Settings      `yaml:"settings"`
	Hooks    HooksConfig   `yaml:"hooks,omitempty"`
}

// CatalogConfig describes the remote font catalog.
type CatalogConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key,omitempty"`
	// AllVariants keeps weights and styles beyond the four supported variants in parsed snapshots.
	AllVariants bool `yaml:"all_variants"`
}

// Settings represents general application settings.
type Settings struct {
	// StorageDir is the root for downloaded fonts, the catalog snapshot and the name cache.
	StorageDir string `yaml:"storage_dir,omitempty"`

	// Network settings
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables throttling
	Burst             int           `yaml:"burst"`

	NameCacheBackend string `yaml:"name_cache_backend"` // file, sqlite
	// SystemFontDirs are scanned for installed fonts. An empty list in a
	// loaded file disables scanning.
	SystemFontDirs []string `yaml:"system_font_dirs,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// HooksConfig points at Tengo scripts run after acquisitions.
type HooksConfig struct {
	PostAcquire   string `yaml:"post_acquire,omitempty"`
	AcquireFailed string `yaml:"acquire_failed,omitempty"`
}

// Default configuration values.
const (
	// CurrentFormatVersion is written into new configuration files.
	CurrentFormatVersion = "1.0"

	// SupportedFormatVersions is the constraint a loaded format_version must satisfy.
	SupportedFormatVersions = "~> 1.0"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultBurst is the default burst size when throttling is enabled.
	DefaultBurst = 1

	// APIKeyEnv overrides catalog.api_key when set.
	APIKeyEnv = "INKWELL_API_KEY"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	storageDir, err := fsutil.GetDataDir()
	if err != nil {
		// Fallback to current directory if we can't determine the data dir
		storageDir = filepath.Join(".", fsutil.AppName)
	}

	return &Config{
		FormatVersion: CurrentFormatVersion,
		Catalog: CatalogConfig{
			Endpoint: catalog.DefaultEndpoint,
		},
		Settings: Settings{
			StorageDir:       storageDir,
			HTTPTimeout:      DefaultHTTPTimeout,
			UserAgent:        catalog.DefaultUserAgent,
			Burst:            DefaultBurst,
			NameCacheBackend: storage.BackendFile,
			SystemFontDirs:   platform.DefaultFontDirs(runtime.GOOS),
			OutputFormat:     "text",
			LogLevel:         "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errutils.Wrap(errutils.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	// The file may carry an API key
	if err := fsutil.AtomicWriteFile(absPath, data, fsutil.FileModeSecure); err != nil {
		return errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
	}
	return []byte(buf.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if err := validateFormatVersion(c.FormatVersion); err != nil {
		return err
	}
	if strings.TrimSpace(c.Catalog.Endpoint) == "" {
		return errutils.ErrEmptyEndpoint
	}
	return validateSettings(c.Settings)
}

func validateFormatVersion(raw string) error {
	v, err := version.NewVersion(raw)
	if err != nil {
		return errutils.Wrapf(errutils.ErrUnsupportedConfigVersion, "%q", raw)
	}
	constraint, err := version.NewConstraint(SupportedFormatVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return errutils.Wrapf(errutils.ErrUnsupportedConfigVersion, "%s does not satisfy %s", v, SupportedFormatVersions)
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errutils.ErrHTTPTimeoutNegative
	}
	if s.RequestsPerSecond < 0 || s.Burst < 0 {
		return errutils.ErrRateLimitNegative
	}
	switch s.NameCacheBackend {
	case storage.BackendFile, storage.BackendSQLite:
	default:
		return errutils.ErrInvalidBackendWithDetails(s.NameCacheBackend)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errutils.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errutils.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetStorageDir returns the storage root from settings.
func (c *Config) GetStorageDir() string {
	return c.Settings.StorageDir
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.FormatVersion == "" {
		c.FormatVersion = defaults.FormatVersion
	}
	if c.Catalog.Endpoint == "" {
		c.Catalog.Endpoint = defaults.Catalog.Endpoint
	}
	if c.Settings.StorageDir == "" {
		c.Settings.StorageDir = defaults.Settings.StorageDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.Burst == 0 {
		c.Settings.Burst = defaults.Settings.Burst
	}
	if c.Settings.NameCacheBackend == "" {
		c.Settings.NameCacheBackend = defaults.Settings.NameCacheBackend
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Catalog.APIKey = key
	}
}
