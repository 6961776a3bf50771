package root

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"habitline/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			handler, err := server.New(server.Config{Store: a.store, Transfer: a.transfer})
			if err != nil {
				return err
			}
			addr := a.cfg.HTTP.Addr
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownServer(srv, 5*time.Second, log.Default())
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving habitline API on http://%s/api (OpenAPI at /api/openapi.json, docs at /api/docs)\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "listen address (default http.addr from config)")
	_ = viper.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

// shutdownServer stops srv, waiting up to timeout for in-flight requests.
func shutdownServer(srv *http.Server, timeout time.Duration, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("warning: shutdown http server: %v", err)
	}
}
