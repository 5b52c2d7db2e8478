package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.GetConfig()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	conn, err := db.GetDbConn(cfg.DbName, cfg.DbHost, cfg.DbPort, cfg.DbUser, cfg.DbPas)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	dao := db.NewDbDao(conn)
	if err := dao.InitMigrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate db schema")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	orderCache := redis_repo.NewOrderCacheRepo(rdb)

	orderRepo := redis_decorator.NewCacheAsideOrderRepo(db.NewOrderRepo(dao), orderCache)
	couponRepo := db.NewCouponRepo(dao)

	producer := feed.NewOrderFeedProducer(cfg.Brokers(), cfg.KafkaTopic)
	defer producer.Close()

	couponSvc := service.NewCouponService(couponRepo)
	orderSvc := service.NewOrderService(orderRepo, couponSvc, producer)

	syncSvc := service.NewOrderSyncService(func(handler feed.EventHandler, onReconnect func()) feed.IOrderFeedConsumer {
		return feed.NewOrderFeedConsumer(cfg.Brokers(), cfg.KafkaTopic, cfg.KafkaGroupID, handler, onReconnect)
	}, orderCache)
	if err := syncSvc.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start order sync service")
	}
	defer syncSvc.Stop(5 * time.Second)

	carts := cart.NewManager()
	checkouts := checkout.NewManager(carts, couponSvc, orderSvc)

	server := api.NewServer(checkouts, couponSvc, orderSvc)
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Msgf("storefront listening on :%s", cfg.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatal().Err(err).Msg("storefront exited with error")
	}
	log.Info().Msg("storefront stopped")
}
