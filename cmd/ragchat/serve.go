package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dream-ai/ragchat/internal/app"
	"github.com/dream-ai/ragchat/internal/metrics"
	"github.com/dream-ai/ragchat/internal/server"
	"github.com/dream-ai/ragchat/internal/watcher"
)

func serveCmd() *cobra.Command {
	var addr, watchDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Address
			}
			if watchDir == "" {
				watchDir = cfg.Server.WatchDir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			services := app.Build(ctx, cfg, metrics.New(), nil)
			defer services.Close()

			srv := server.New(services, cfg.Server.StaticDir, nil)

			if watchDir != "" {
				w := watcher.New(services, watchDir, watcher.DefaultSettle, nil)
				go func() {
					if err := w.Run(ctx); err != nil {
						log.Printf("watcher stopped: %v", err)
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", addr)
				errCh <- srv.Start(addr)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory to watch for new PDFs")
	return cmd
}
