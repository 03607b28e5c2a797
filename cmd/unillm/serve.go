package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/unillm/core/client/middleware"
	"github.com/leofalp/unillm/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /v1/generate, /v1/stream and /metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if timeout == 0 {
				timeout = a.cfg.Server.RequestTimeout
			}

			c, err := a.newClient(middleware.NewTimeoutMiddleware(timeout))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(c, server.Options{
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Metrics:        a.metrics,
				Observer:       a.observer,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request deadline (default from config, then 2m)")
	return cmd
}
