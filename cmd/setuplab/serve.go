package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"setuplab/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over the bar cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("addr") {
				a.cfg.Web.Addr = addr
			}
			if !verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := signalContext("server")
			defer cancel()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			srv := web.NewServer(a.cfg, st, a.logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(a.cfg.Web.Addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down", zap.String("addr", a.cfg.Web.Addr))
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
