package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaronromeo/mailtrim/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cleanup web page and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(context.Background())

			listen := rt.cfg.Server.Listen
			if cmd.Flags().Changed("listen") {
				listen, _ = cmd.Flags().GetString("listen")
			}

			app, err := server.New(rt.service,
				server.WithLogger(rt.logger),
				server.WithTracerProvider(rt.providers.TracerProvider),
				server.WithMeterProvider(rt.providers.MeterProvider),
			)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Listen(listen)
			}()
			rt.logger.Info("serving", slog.String("listen", listen))
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", listen)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}
	cmd.Flags().String("listen", "", "Address to listen on (defaults to server.listen or :8080)")
	return cmd
}
