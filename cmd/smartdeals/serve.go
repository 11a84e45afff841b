package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smartdeals/internal/http/handlers"
	"smartdeals/internal/metrics"
	"smartdeals/internal/repos"
	"smartdeals/internal/services"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("db.open", zap.Error(err), zap.String("driver", cfg.DBDriver))
		return err
	}
	defer db.Close()

	deps := handlers.NewDeps(db, cfg, logger, metrics.New())
	app := handlers.NewApp(deps)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go purgeSessions(ctx, deps.Auth, logger)

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(cfg.Addr()) }()
	logger.Info("server.start", zap.String("addr", cfg.Addr()), zap.String("db_driver", cfg.DBDriver))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("server.stop")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}

func purgeSessions(ctx context.Context, auth *services.AuthService, logger *zap.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := auth.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("session.purge", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("session.purge", zap.Int64("removed", n))
			}
		}
	}
}
