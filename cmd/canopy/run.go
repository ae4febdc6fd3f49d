package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <doc-id> <command>",
	Short: "Run a builder command against a stored document",
	Long: `Loads the document (or starts a new one with that id), runs the command with the
JSON arguments given by --args, prints the result and saves the document.`,
	Example: `  canopy run home elements/create --args '{"type":"heading","props":{"text":"Hi"}}'
  canopy run home elements/move --args '{"id":"...","parentId":"...","index":0}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		docID, name := args[0], args[1]
		rawArgs, _ := cmd.Flags().GetString("args")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cmdArgs := command.Args{}
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &cmdArgs); err != nil {
				return fmt.Errorf("invalid --args: %w", err)
			}
		}

		b, err := env.NewBuilder(cmd.Context(), docID)
		if err != nil {
			return err
		}

		result, err := b.Run(cmd.Context(), name, cmdArgs, command.Source("cli"))
		if err != nil {
			return err
		}
		if c, ok := result.(*domain.Container); ok && c != nil {
			result, _ = b.ElementData(c.ID())
		}
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}

		if dryRun {
			return nil
		}
		return b.Save(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("args", "", "JSON object of command arguments")
	runCmd.Flags().Bool("dry-run", false, "Do not save the document afterwards")
}
