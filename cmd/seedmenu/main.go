// cmd/seedmenu publishes the demo catalog to a store so a fresh install has
// something to sell. Connected agents reload it through the change feed.
// Usage: go run ./cmd/seedmenu -store <store-id>
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"posync/internal/config"
	"posync/internal/domain"
	"posync/internal/gateway"
	"posync/internal/infra"
	"posync/internal/mapper"
	"posync/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	storeID := flag.String("store", cfg.StoreID, "store to seed")
	flag.Parse()
	if *storeID == "" {
		log.Fatal().Msg("no store given: pass -store or set STORE_ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	deps := gateway.Deps{Origin: "seedmenu"}
	if rdb, err := infra.NewRedis(ctx, cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, agents pick the menu up on their next poll")
	} else {
		defer rdb.Close()
		deps.Feed = infra.NewRedisChangeFeed(rdb, cfg.RealtimeInlineLimit)
	}

	menu := domain.DemoMenu(*storeID)
	menu.Source = domain.MenuSourceRemote
	gw := gateway.NewMenu(repository.NewMenuRepository(db), deps)
	if err := gw.Replace(ctx, *storeID, mapper.MenuToRemote(menu)); err != nil {
		log.Fatal().Err(err).Msg("menu replace failed")
	}
	log.Info().Str("store", *storeID).Int("categories", len(menu.Categories)).Msg("demo menu published")
}
