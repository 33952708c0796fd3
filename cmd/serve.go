package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"adventune/folio/popup"
	"adventune/folio/server"
	"adventune/folio/watch"
)

var (
	listenAddr string
	noWatch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site and its live page sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Listen = listenAddr
		}

		pages, err := newPages(cfg)
		if err != nil {
			return err
		}
		shell, err := readShell(cfg)
		if err != nil {
			return err
		}

		contentDir := cfg.ContentDir
		if cfg.BaseURL != "" {
			// Posts and images live on the remote site.
			contentDir = ""
		}

		srv := server.New(server.Config{
			Addr:           cfg.Listen,
			ContentDir:     contentDir,
			Shell:          shell,
			AllowedOrigins: cfg.AllowedOrigins,
			Pages:          pages,
			Popups:         popup.NewBinder(cfg.AssetRoot, cfg.ImageFormat, cfg.ImageFallbackFormat),
			Highlight:      newHighlighter(cfg),
		}, repositoryFactory(cfg))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Start the content watcher
		if cfg.Watch && !noWatch && contentDir != "" {
			w, err := watch.New(contentDir, func(path string) { srv.Reload() })
			if err != nil {
				return fmt.Errorf("starting content watcher: %w", err)
			}
			go func() {
				if err := w.Run(ctx, watch.DefaultInterval); err != nil {
					log.Error().Err(err).Msg("Content watcher stopped")
				}
			}()
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving: %w", err)
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8000", "address to listen on")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the content watcher")
	rootCmd.AddCommand(serveCmd)
}
