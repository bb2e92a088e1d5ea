package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pokesag/pokesag/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only HTTP API",
	Long: `Serve received pages over HTTP from the local database.

Routes:
  GET /pages/                          latest pages, page 1
  GET /pages/{page}/                   latest pages
  GET /pages/search/{mode}/{query}/    search, page 1
  GET /pages/search/{mode}/{query}/{page}/
  GET /hoverCodes.json                 tooltip dictionary ([server].hover_codes)
  GET /settings.json                   page size and refresh interval
  GET /health

Search modes: ft (full-text, web-search syntax), basic (substring or
exact recipient), source (source name prefix).

Use Ctrl+C to stop the server gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := MustBeLocal("serve"); err != nil {
		return err
	}

	s, err := openLocalStore()
	if err != nil {
		return err
	}
	defer s.Close()

	srv := api.NewServer(cfg, s, logger)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
		return nil
	})

	fmt.Printf("pokesag server started\n")
	fmt.Printf("  API server: http://%s\n", cfg.ListenAddr())
	fmt.Printf("  Database:   %s\n", s.Path())
	if cfg.Server.HoverCodes != "" {
		fmt.Printf("  Tooltips:   %s\n", cfg.Server.HoverCodes)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	err = g.Wait()
	if err == nil {
		logger.Info("shutdown complete")
	}
	return err
}
