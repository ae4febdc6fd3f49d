package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/presentation/tui"
	httpAdapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves one document over a JSON API: commands, document import/export, collision detection, metrics and an event stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		docID, _ := cmd.Flags().GetString("doc")
		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = env.Config.HTTP.Port
		}
		autosave, _ := cmd.Flags().GetBool("autosave")

		metrics := env.EnableMetrics()
		sc, stop := context.WithCancel(lifecycle.NewSignalContext(cmd.Context()))
		defer stop()

		b, err := env.NewBuilder(sc, docID)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(b,
			httpAdapter.WithLogger(env.Logger),
			httpAdapter.WithMetricsHandler(metrics.Handler()),
			httpAdapter.WithEvents(b.Hooks()),
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		lifecycle.Go(sc, func(ctx context.Context) error {
			if tui.IsTerminal(os.Stdout) {
				tui.PrintBanner(cmd.OutOrStdout())
			}
			cli.PrintSystemMessage("Serving document '%s' on %s", b.DocumentID(), srv.Addr)
			serverErrors <- srv.ListenAndServe()
			return nil
		})

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case <-sc.Done():
			cli.PrintSystemMessage("Shutting down...")

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				env.Logger.Warn("graceful shutdown did not complete", "err", err)
				_ = srv.Close()
			}
		}

		if autosave {
			if err := b.Save(context.Background()); err != nil {
				return fmt.Errorf("autosave failed: %w", err)
			}
			cli.PrintSystemMessage("Saved document '%s'", b.DocumentID())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from config)")
	serveCmd.Flags().String("doc", "", "Document id to load and serve (default: a new document)")
	serveCmd.Flags().Bool("autosave", true, "Save the document on shutdown")
}
