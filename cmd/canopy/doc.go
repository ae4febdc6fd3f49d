package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage stored documents",
	Long:  `List, inspect, and remove documents in the configured store.`,
}

var docLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ids, err := env.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No documents found.")
			return nil
		}
		fmt.Fprintln(out, "Documents:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var docInspectCmd = &cobra.Command{
	Use:   "inspect <doc-id>",
	Short: "Print a document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := env.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading document '%s': %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), doc)
	},
}

var docTreeCmd = &cobra.Command{
	Use:   "tree <doc-id>",
	Short: "Print the element tree of a document",
	Long:  `Prints an indented outline of the document, or a Mermaid diagram with --mermaid.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := env.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading document '%s': %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			highlight, _ := cmd.Flags().GetStringSlice("highlight")
			var overlay *graph.Overlay
			if len(highlight) > 0 {
				overlay = &graph.Overlay{Highlighted: highlight}
			}
			fmt.Fprint(out, graph.GenerateMermaid(doc, overlay))
			return nil
		}

		fmt.Fprintf(out, "%s (%d elements)\n", doc.ID, doc.Count())
		fmt.Fprint(out, graph.Outline(doc.Elements))
		return nil
	},
}

var docRmCmd = &cobra.Command{
	Use:   "rm <doc-id>...",
	Short: "Remove one or more documents",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			args, err = env.Store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing documents: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, id := range args {
			if err := env.Store.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing '%s': %v\n", id, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "Removed document '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.AddCommand(docLsCmd)
	docCmd.AddCommand(docInspectCmd)
	docCmd.AddCommand(docTreeCmd)
	docCmd.AddCommand(docRmCmd)

	docTreeCmd.Flags().Bool("mermaid", false, "Print a Mermaid diagram instead of an outline")
	docTreeCmd.Flags().StringSlice("highlight", nil, "Element ids to highlight in the diagram")
	docRmCmd.Flags().Bool("all", false, "Remove every document")
}
