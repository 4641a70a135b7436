package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "resolve FAMILY",
		Short: "Show the platform name of a font",
		Long: `Look a font up in the name cache and among the system fonts without
touching the network.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], variant)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "regular", "Variant: regular, 700 (bold), italic, 700italic")

	return cmd
}

func runResolve(cmd *cobra.Command, family, variant string) error {
	id, err := parseIdentifier(family, variant)
	if err != nil {
		return err
	}

	iw, _, err := openInkwell()
	if err != nil {
		return err
	}
	defer func() { _ = iw.Close() }()

	name, ok := iw.Resolve(id)
	if !ok {
		return fmt.Errorf("font %s is not available locally (run 'inkwell fetch %s')", id, family)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
