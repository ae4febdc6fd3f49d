package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "canopy",
	Short:         "Canopy is a page-builder core for element trees",
	Long:          `Canopy stores page documents as element trees and edits them through commands, over HTTP, MCP or the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <dir>/canopy.yaml)")
}

// setup loads the configuration named by the persistent flags.
func setup(cmd *cobra.Command) (*cli.Environment, error) {
	dir, _ := cmd.Flags().GetString("dir")
	configPath, _ := cmd.Flags().GetString("config")
	return cli.Setup(cmd.Context(), dir, configPath)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
