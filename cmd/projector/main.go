package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/projector"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	name := cfg.ServiceName + "-projector"
	log := logx.New(cfg.LogLevel, cfg.LogPretty, name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &projector.Service{
		Cache: &orders.RedisStatusCache{R: rdb},
		Redis: rdb,
		Name:  name,
		Log:   log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, projector.Topics, cfg.ProjectorWorkers, log)
	log.Info().
		Str("group", cfg.ProjectorGroup).
		Strs("topics", projector.Topics).
		Int("workers", cfg.ProjectorWorkers).
		Msg("projector consumer started")

	// Start returns once ctx is cancelled and in-flight handlers finish.
	if err := cons.Start(ctx, svc.Handle); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("consumer exit")
	}
	log.Info().Msg("projector stopped")
}
