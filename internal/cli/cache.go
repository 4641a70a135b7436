package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/storage"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage local font storage",
		Long:  "Clean, show information about, and locate downloaded fonts, the catalog snapshot and the name cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var options storage.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean local storage",
		Long:  "Remove stored files. Without flags everything is removed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, options)
		},
	}

	cmd.Flags().BoolVar(&options.All, "all", false, "Remove everything")
	cmd.Flags().BoolVar(&options.Catalog, "catalog", false, "Remove only the catalog snapshot")
	cmd.Flags().BoolVar(&options.Fonts, "fonts", false, "Remove only downloaded fonts")
	cmd.Flags().BoolVar(&options.Names, "names", false, "Remove only the name cache")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheInfo(cmd)
		},
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show storage directory path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheDir(cmd)
		},
	}
}

// openStorage opens the storage root without starting the acquisition pipeline.
func openStorage() (*storage.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.GetStorageDir())
}

func runCacheClean(cmd *cobra.Command, options storage.CleanOptions) error {
	store, err := openStorage()
	if err != nil {
		return err
	}

	result, err := store.Clean(options)
	if err != nil {
		return err
	}

	if result.CatalogFreed > 0 {
		logger.Info("Removed catalog snapshot", logger.Fields{"size": humanize.Bytes(uint64(result.CatalogFreed))})
	}
	if result.FontsFreed > 0 {
		logger.Info("Removed downloaded fonts", logger.Fields{"size": humanize.Bytes(uint64(result.FontsFreed))})
	}
	if result.NamesFreed > 0 {
		logger.Info("Removed name cache", logger.Fields{"size": humanize.Bytes(uint64(result.NamesFreed))})
	}

	logger.Success("Storage cleaning completed", logger.Fields{"total_freed": humanize.Bytes(uint64(result.TotalFreed))})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Freed %s\n", humanize.Bytes(uint64(result.TotalFreed)))
	return nil
}

func runCacheInfo(cmd *cobra.Command) error {
	store, err := openStorage()
	if err != nil {
		return err
	}

	info, err := store.Info()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Storage Directory: %s\n", info.Directory)
	_, _ = fmt.Fprintf(out, "Total Size: %s\n", humanize.Bytes(uint64(info.TotalSize)))
	_, _ = fmt.Fprintf(out, "Fonts: %s (%s)\n", humanize.Bytes(uint64(info.FontsSize)), pluralFiles(info.FontFiles))
	_, _ = fmt.Fprintf(out, "Catalog Snapshot: %s\n", humanize.Bytes(uint64(info.CatalogSize)))
	_, _ = fmt.Fprintf(out, "Name Cache: %s\n", humanize.Bytes(uint64(info.NameCacheSize)))

	return nil
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return humanize.Comma(int64(n)) + " files"
}

func runCacheDir(cmd *cobra.Command) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), store.Root())
	return nil
}
