package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm/logger"

	"github.com/mytheresa/product-catalog/app"
	"github.com/mytheresa/product-catalog/cache"
	"github.com/mytheresa/product-catalog/config"
	"github.com/mytheresa/product-catalog/models"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	gormLevel := logger.Silent
	if cfg.DBLogMode {
		gormLevel = logger.Info
	}
	db, err := models.OpenPostgres(cfg.DSN(), models.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, gormLevel)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.Info("connected to postgres")

	if cfg.DBAutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	var listings app.ListingStore = cache.Noop{}
	if cfg.CacheEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			return err
		}
		listings = cache.NewListingCache(client, cfg.ListingCacheTTL)
		log.Info("listing cache enabled", slog.String("redis", cfg.RedisAddr))
	}

	var limiter *rate.Limiter
	if cfg.WriteRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WriteRateLimit), cfg.WriteRateBurst)
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: app.NewRouter(app.Dependencies{
			Products:        models.NewProductsRepository(db),
			References:      models.NewReferencesRepository(db),
			Listings:        listings,
			Logger:          log,
			WriteLimiter:    limiter,
			DefaultPageSize: cfg.DefaultPageSize,
			Ping:            sqlDB.PingContext,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
