package main

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/adapters/mcp"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes one document to AI agents as MCP tools and resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		docID, _ := cmd.Flags().GetString("doc")

		sc, stop := context.WithCancel(lifecycle.NewSignalContext(cmd.Context()))
		defer stop()

		b, err := env.NewBuilder(sc, docID)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(b, mcp.WithLogger(env.Logger))

		switch transport {
		case "stdio":
			env.Logger.Info("starting MCP server (stdio)", "doc", b.DocumentID())
			err = srv.ServeStdio()
		case "sse":
			env.Logger.Info("starting MCP server (SSE)", "port", port, "doc", b.DocumentID())
			err = srv.ServeSSE(sc, port)
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
		if err != nil {
			return fmt.Errorf("MCP server failed: %w", err)
		}

		if docID != "" {
			return b.Save(cmd.Context())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("doc", "", "Document id to load; it is saved again on exit")
}
