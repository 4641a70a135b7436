package cli

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewNamesCmd creates the names command.
func NewNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Inspect the name cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached platform names",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNamesList(cmd)
		},
	})

	return cmd
}

func runNamesList(cmd *cobra.Command) error {
	iw, _, err := openInkwell()
	if err != nil {
		return err
	}
	defer func() { _ = iw.Close() }()

	entries, err := iw.Names().Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Name cache is empty")
		return nil
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := pterm.TableData{{"KEY", "POSTSCRIPT NAME"}}
	for _, k := range keys {
		data = append(data, []string{k, entries[k]})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}
