package main

import (
	"fmt"
	"os"

	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the element types that can be created",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		b, err := env.NewBuilder(cmd.Context(), "")
		if err != nil {
			return err
		}
		descs := b.AvailableElements(cmd.Context())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), descs)
		}

		render := tui.NewRenderer(tui.IsTerminal(os.Stdout))
		out, err := render(tui.CatalogMarkdown(descs))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().Bool("json", false, "Print descriptors as JSON")
}
