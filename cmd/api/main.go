package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/address"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/timer"
	"storefront/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("exit", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//キャッシュ（REDIS_ADDR が無ければメモリ）
	var store cache.Store
	if cfg.RedisAddr != "" {
		store = cache.NewRedisStore(cache.NewRedisClient(cfg.RedisAddr))
		log.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		store = cache.NewMemoryStore()
		log.Info("cache: memory")
	}

	//イベント（KAFKA_BROKERS があればKafkaへも流す）
	var (
		sinks []events.Sink
		kafka *events.KafkaSink
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafka = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, 256, log)
		kafka.Start(ctx)
		sinks = append(sinks, kafka)
	}
	bus := events.NewBus(log, sinks...)

	//外部API
	api := apiclient.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	addrAPI := apiclient.New(cfg.AddressAPIBaseURL, cfg.HTTPTimeout, log)
	addresses := address.NewDirectory(addrAPI, store, cfg.AddressCacheTTL, log)

	//Repository（GORM実装）
	sessionRepo := infraRepo.NewSessionGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//Usecase
	authUC := usecase.NewAuthUsecase(api, sessionRepo, cfg.SessionTTL, log)
	cartUC := usecase.NewCartUsecase(api, log)
	settingsUC := usecase.NewSettingsUsecase(api, store, cfg.SettingsCacheTTL, log)
	profileUC := usecase.NewProfileUsecase(api, log)
	orderUC := usecase.NewOrderUsecase(api, bus, log)
	guestUC := usecase.NewGuestUsecase(sessionRepo, bus, log)
	productUC := usecase.NewProductUsecase(api, log)

	authUC.OnReset(cartUC)
	authUC.OnReset(profileUC)
	profileUC.Subscribe(bus)

	checkoutUC := usecase.NewCheckoutUsecase(authUC, cartUC, settingsUC, profileUC, orderUC, guestUC, addresses, bus, log)
	authUC.OnExpire(checkoutUC)
	adminUC := usecase.NewAdminUsecase(usecase.NewAdminResources(api), api, settingsUC, authUC, auditRepo, log)

	//Handler
	srv := server.New(cfg, log, authUC, server.Handlers{
		Auth:     handler.NewAuthHandler(authUC, checkoutUC),
		Cart:     handler.NewCartHandler(cartUC),
		Product:  handler.NewProductHandler(productUC, settingsUC),
		Profile:  handler.NewProfileHandler(profileUC),
		Order:    handler.NewOrderHandler(orderUC),
		Address:  handler.NewAddressHandler(addresses),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Admin:    handler.NewAdminHandler(adminUC),
	})

	//スライダーと期限切れセッションの掃除
	productUC.StartSliders(cfg.SliderInterval, timer.RealTicker)
	cleanup := timer.Every(time.Hour, func() {
		cctx, ccancel := context.WithTimeout(ctx, 30*time.Second)
		defer ccancel()
		if _, err := authUC.CleanupExpired(cctx); err != nil {
			log.Warn("cleanup sessions", zap.Error(err))
		}
	}, timer.RealTicker)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sig:
		log.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	checkoutUC.Shutdown()
	productUC.StopSliders()
	cleanup.Stop()
	profileUC.Wait()

	cancel()
	if kafka != nil {
		kafka.WaitClosed()
	}
	return runErr
}
