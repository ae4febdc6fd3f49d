package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/canopy"
	httpAdapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file.json>",
	Short: "Resolve a drop target from recorded rectangles",
	Long: `Reads {"draggedId", "active", "candidates"} from a JSON file (or "-" for stdin)
and prints the drop target the smart algorithm picks. With --debug every
algorithm's answer is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		var req httpAdapter.DetectRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("invalid detect input: %w", err)
		}

		ratio, _ := cmd.Flags().GetFloat64("min-ratio")
		b := canopy.New(canopy.WithMinIntersectionRatio(ratio))

		out := cmd.OutOrStdout()
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			return printJSON(out, b.DebugDrop(req.DraggedID, req.Active, req.Candidates))
		}
		res := b.ResolveDrop(req.DraggedID, req.Active, req.Candidates)
		if res == nil {
			fmt.Fprintln(out, "No drop target.")
			return nil
		}
		return printJSON(out, res)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().Bool("debug", false, "Print every algorithm's result")
	detectCmd.Flags().Float64("min-ratio", 0, "Minimum intersection ratio (default from the detector)")
}
