package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/config"
	"github.com/tbourn/go-devflow-backend/internal/events"
	httpapi "github.com/tbourn/go-devflow-backend/internal/http"
	"github.com/tbourn/go-devflow-backend/internal/observability"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		migrate bool
		dbWait  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, migrate, dbWait)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "Migrate the schema on startup")
	cmd.Flags().DurationVar(&dbWait, "db-wait", defaultDBWait, "How long to wait for the database")
	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, a *app, migrate bool, dbWait time.Duration) error {
	cfg := a.cfg

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, a.version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	conn := repo.NewConnector(opener(cfg, migrate))
	if _, err := connectWithRetry(ctx, conn, dbWait); err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	bus := events.NewBus(cfg.EventQueueSize)
	rec, err := events.NewRecorder(bus, conn)
	if err != nil {
		return err
	}
	defer rec.Close()

	srv := newServer(cfg, httpapi.Deps{
		Conn:     conn,
		Sessions: auth.NewManager(cfg.Session),
		Bus:      bus,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}

// newServer builds the engine and the http.Server around it.
func newServer(cfg config.Config, d httpapi.Deps) *http.Server {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, d, cfg)

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
