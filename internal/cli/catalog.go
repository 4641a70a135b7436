package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/catalog"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/inkwell"
)

// NewCatalogCmd creates the catalog command with subcommands.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the font catalog",
		Long:  "Fetch the remote font catalog and browse the local snapshot",
	}

	cmd.AddCommand(
		newCatalogSyncCmd(),
		newCatalogListCmd(),
		newCatalogShowCmd(),
	)

	return cmd
}

func newCatalogSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the catalog",
		Long:  "Download the remote catalog and replace the local snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalogSync(cmd)
		},
	}
}

func newCatalogListCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog families",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalogList(cmd, filter)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only families containing this text")

	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FAMILY",
		Short: "Show the files of a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(cmd, args[0])
		},
	}
}

func runCatalogSync(cmd *cobra.Command) error {
	iw, _, err := openInkwell()
	if err != nil {
		return err
	}
	defer func() { _ = iw.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := iw.Catalog().Fetch(ctx)
	if err != nil {
		return err
	}

	logger.Success("Catalog synchronized", logger.Fields{"families": snap.Len()})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d families\n", snap.Len())
	return nil
}

func loadSnapshot(iw *inkwell.Inkwell) (*catalog.Snapshot, error) {
	snap, err := iw.Catalog().Snapshot()
	if errors.Is(err, errutils.ErrCatalogNotFound) {
		return nil, fmt.Errorf("%w (run 'inkwell catalog sync' first)", err)
	}
	return snap, err
}

func runCatalogList(cmd *cobra.Command, filter string) error {
	iw, _, err := openInkwell()
	if err != nil {
		return err
	}
	defer func() { _ = iw.Close() }()

	snap, err := loadSnapshot(iw)
	if err != nil {
		return err
	}

	entries := snap.Search(filter)
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No families found matching '%s'\n", filter)
		return nil
	}

	data := pterm.TableData{{"FAMILY", "CATEGORY", "VARIANTS", "VERSION"}}
	for _, e := range entries {
		data = append(data, []string{e.Family, e.Category, strings.Join(e.Variants(), ","), e.Version})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}

func runCatalogShow(cmd *cobra.Command, family string) error {
	iw, _, err := openInkwell()
	if err != nil {
		return err
	}
	defer func() { _ = iw.Close() }()

	snap, err := loadSnapshot(iw)
	if err != nil {
		return err
	}
	entry, ok := snap.Entry(family)
	if !ok {
		return fmt.Errorf("family %q is not in the catalog", family)
	}

	pterm.Printf("%s (%s)\n", entry.Family, entry.Category)
	if entry.LastModified != "" {
		pterm.Printf("Last modified: %s\n", entry.LastModified)
	}
	data := pterm.TableData{{"VARIANT", "URL"}}
	for _, code := range entry.Variants() {
		data = append(data, []string{code, truncate(entry.Files[code], MaxURLLength)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}
