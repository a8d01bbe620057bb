package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	log "github.com/kestreldb/kestrel/internal/logging"
	"github.com/kestreldb/kestrel/internal/services/queryapi"
)

func newServeCmd() *cobra.Command {
	config := &engineConfig{}
	var httpAddr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the query API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, shutdown, err := config.buildEngine(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			srv := &http.Server{
				Addr:              httpAddr,
				Handler:           queryapi.NewHandler(eng),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", httpAddr).Msg("query API listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	config.registerFlags(serveCmd.Flags())
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "address for the query API listener")

	return serveCmd
}
