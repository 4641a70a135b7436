package cli

import (
	"fmt"
	"net/http"

	"github.com/pterm/pterm"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/config"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/inkwell"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// httpClient overrides the client built from the configuration when non-nil.
var httpClient *http.Client

// InitLogging configures the logger from the configuration file and the
// global flags. A broken configuration is reported by the command itself.
func InitLogging() {
	level, format := "info", logger.FormatText
	if cfg, err := loadConfig(); err == nil {
		level = cfg.Settings.LogLevel
		format = logger.OutputFormat(cfg.Settings.OutputFormat)
	}
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	if OutputFormat != nil && *OutputFormat != "" {
		format = logger.OutputFormat(*OutputFormat)
	}
	if NoColor != nil && *NoColor {
		pterm.DisableColor()
	}
	logger.InitLogger(level, format)
}

// loadConfig loads the configuration from the --config path or the default location.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	return cfg, nil
}

// openInkwell builds the pipeline from the configuration. Completions run
// inline because the CLI waits for them anyway.
func openInkwell() (*inkwell.Inkwell, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	opts, err := inkwell.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts.Dispatcher = inkwell.Inline
	opts.HTTPClient = httpClient
	iw, err := inkwell.New(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize inkwell: %w", err)
	}
	return iw, cfg, nil
}

func parseIdentifier(family, variant string) (font.Identifier, error) {
	id, err := font.New(family, variant)
	if err != nil {
		return font.Identifier{}, fmt.Errorf("invalid font %q: %w", family, err)
	}
	return id, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
