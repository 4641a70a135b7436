package cli

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/inkwell"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var (
		variant string
		size    float64
		rawURL  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch FAMILY",
		Short: "Acquire a font",
		Long: `Make a font family and variant available locally.

The font is looked up in the name cache first. When it is not known yet it is
downloaded from the catalog, registered and remembered for the next time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], variant, size, rawURL, timeout)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "regular", "Variant: regular, 700 (bold), italic, 700italic")
	cmd.Flags().Float64Var(&size, "size", DefaultFontSize, "Point size to instantiate the face at")
	cmd.Flags().StringVar(&rawURL, "url", "", "Download URL used when the catalog has no file for the font")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultFetchTimeout, "Give up after this long")

	return cmd
}

func runFetch(cmd *cobra.Command, family, variant string, size float64, rawURL string, timeout time.Duration) error {
	id, err := parseIdentifier(family, variant)
	if err != nil {
		return err
	}

	var opts []inkwell.AcquireOption
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid --url: %w", err)
		}
		opts = append(opts, inkwell.WithFallbackURL(u))
	}

	iw, _, err := openInkwell()
	if err != nil {
		return err
	}
	defer func() { _ = iw.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := iw.AcquireAndWait(ctx, id, size, opts...)
	if !result.OK() {
		return fmt.Errorf("font %s is unavailable: %w", id, result.Err)
	}
	defer func() { _ = result.Handle.Close() }()

	path := result.Path
	if path == "" && iw.Storage().FileExists(id) {
		path = iw.Storage().FontPath(id)
	}
	height := result.Handle.Metrics().Height

	logger.Success("Font acquired", logger.Fields{
		"font":            id.String(),
		"postscript_name": result.PostscriptName,
		"line_height":     height.Round(),
	})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id.Key(), result.PostscriptName, path)
	return nil
}
