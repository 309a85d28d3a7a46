package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/middleware"
	"ticket-stream-portal/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the command that runs the HTTP portal.
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ticket portal HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTP.Host + ":" + cfg.HTTP.Port
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// A nil Scripter turns the limiter into a passthrough.
			var scripter redis.Scripter
			if cfg.RateLimit.Enabled {
				rdb, err := client.InitRedisClient(ctx, cfg.Redis)
				if err != nil {
					log.Warn("redis unavailable, rate limiting disabled", "error", err)
				} else {
					scripter = rdb
					a.closers = append(a.closers, rdb.Close)
				}
			}

			srv := server.NewServer(server.Options{
				Issuance:     a.issuance,
				Settlement:   a.settlement,
				Redemption:   a.redemption,
				Admin:        a.adminSvc,
				Reminders:    a.reminders,
				AdminLogin:   a.admin,
				AdminSession: a.admin,
				RateLimit:    middleware.RateLimit(cfg.RateLimit, scripter, log),
				GrantCookie:  cfg.Grant.CookieName,
				SecureCookie: strings.HasPrefix(cfg.BaseURL, "https://"),
				Log:          log,
			})

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting HTTP server", "addr", addr, "event", a.event.Name)
				if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("signal received, starting graceful shutdown")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to HTTP_HOST:HTTP_PORT)")

	return cmd
}
