package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posync/internal/config"
	"posync/internal/engine"
	"posync/internal/gateway"
	"posync/internal/infra"
	"posync/internal/model"
	"posync/internal/realtime"
	"posync/internal/repository"
	"posync/internal/router"
	"posync/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("device", cfg.DeviceID).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Without redis the agent still works: no change feed (polling only) and
	// dead letters are only logged.
	var (
		rdb  *redis.Client
		feed infra.ChangeFeed
	)
	if rdb, err = infra.NewRedis(ctx, cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, realtime disabled")
		rdb = nil
	} else {
		feed = infra.NewRedisChangeFeed(rdb, cfg.RealtimeInlineLimit)
	}

	breaker := gateway.NewBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: cfg.CBFailureThreshold,
		OpenTimeout:      cfg.CBOpenTimeout,
	})
	deps := gateway.Deps{Breaker: breaker, Feed: feed, Origin: cfg.DeviceID}

	gws := engine.Gateways{
		Sales:      gateway.New(model.TableSales, repository.NewSaleStore(db, cfg.FetchLimit), deps),
		Closures:   gateway.New(model.TableDayClosures, repository.NewClosureStore(db, cfg.FetchLimit), deps),
		Expenses:   gateway.New(model.TableExpenses, repository.NewExpenseStore(db, cfg.FetchLimit), deps),
		Injections: gateway.New(model.TableCashInjections, repository.NewInjectionStore(db, cfg.FetchLimit), deps),
		Settings:   gateway.New(model.TableSettings, repository.NewSettingsStore(db), deps),
		Menu:       gateway.NewMenu(repository.NewMenuRepository(db), deps),
	}

	eng := engine.New(engine.Config{
		StoreID:  cfg.StoreID,
		DeviceID: cfg.DeviceID,
		Cadence: engine.Cadence{
			PollOnline:   cfg.PollIntervalOnline,
			PollDegraded: cfg.PollIntervalDegraded,
			Reconnect:    cfg.ReconnectInterval,
		},
		MenuSource: cfg.MenuSource,
	}, gws, feed, worker.NewDLQ(rdb, cfg.DeviceID))

	hub := realtime.NewHub()
	go hub.Run(ctx)
	eng.OnSignal(hub.PublishSignals)

	eng.Start(ctx)
	sweepDone := worker.StartPendingSweep(ctx, worker.SweepConfig{
		Interval: cfg.PendingSweepInterval,
		Target:   eng,
		CB:       breaker,
	})

	r := router.New(cfg, eng, hub, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("store", cfg.StoreID).Msgf("posync agent listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down agent…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	if n := len(eng.PendingWrites()); n > 0 {
		log.Warn().Int("pending", n).Msg("exiting with unconfirmed writes")
	}
	eng.Stop()
	cancel()
	<-sweepDone
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("agent exited")
}
