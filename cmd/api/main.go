package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/civil"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/coupons"
	"github.com/ariefcatur/go-storefront/internal/feedback"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/users"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	requestTimeout = 15 * time.Second
	// outlasts requestTimeout; the producer is closed only after Shutdown.
	shutdownTimeout = requestTimeout + 5*time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logx.New(cfg.LogLevel, cfg.LogPretty, cfg.ServiceName)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer, shared by every topic
	prodCtx, stopProd := context.WithCancel(context.Background())
	defer stopProd()
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(prodCtx)

	clock := civil.NewClock(cfg.CivilTZ)
	products := &catalog.Repo{DB: db}
	router := httpx.NewRouter(httpx.Deps{
		Orders: &orders.Service{
			Store:   &orders.Repo{DB: db},
			Cache:   &orders.RedisStatusCache{R: rdb},
			Events:  prod,
			Clock:   clock,
			Log:     log,
			Service: cfg.ServiceName,
		},
		Catalog: products,
		Users:   &users.Service{Store: &users.Repo{DB: db}, Log: log},
		Feedback: &feedback.Service{
			Store:   &feedback.Repo{DB: db},
			Events:  prod,
			Clock:   clock,
			Log:     log,
			Service: cfg.ServiceName,
		},
		Coupons: &coupons.Service{Coupons: &coupons.Repo{DB: db}},
		Carts:   &cart.RedisStore{R: rdb},
		Log:     log,
		Timeout: requestTimeout,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exit")
	}

	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
}
