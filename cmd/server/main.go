package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/rrt-logic/internal/config"
	"github.com/DoyleJ11/rrt-logic/internal/httpapi"
	"github.com/DoyleJ11/rrt-logic/internal/hub"
	"github.com/DoyleJ11/rrt-logic/internal/lobby"
	"github.com/DoyleJ11/rrt-logic/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := newLogger(cfg.Dev)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// repository picks Postgres when a DSN is configured and memory otherwise.
func repository(cfg config.Config, log *zap.Logger) (store.Repository, func() error, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("RRT_DATABASE_URL not set, save games live in memory")
		return store.NewMemory(), func() error { return nil }, nil
	}
	pg, err := store.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := repository(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	// The hub outlives the signal context so lobbies stop only after the
	// HTTP server has drained.
	h := hub.NewHub(context.Background(), hub.Options{
		Logger: log.Named("hub"),
		Loader: repo,
		Lobby: lobby.Options{
			Logger:      log.Named("lobby"),
			Saver:       repo,
			SaveTimeout: cfg.SaveTimeout,
		},
	})

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:             h,
			Store:           repo,
			Logger:          log.Named("http"),
			AllowClientSeed: cfg.AllowClientSeed,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		// Shutdown does not wait for hijacked websockets; closing the
		// lobbies closes their outboxes, which ends those handlers.
		err := srv.Shutdown(sctx)
		return errors.Join(err, h.Shutdown(sctx))
	})
	return g.Wait()
}
