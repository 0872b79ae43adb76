// Command server runs the booking API and the notification consumer in one
// process.
package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-seat-booking/internal/cache"
	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/database"
	"github.com/iliyamo/event-seat-booking/internal/handler"
	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/router"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

const (
	serviceName     = "event-seat-booking"
	shutdownTimeout = 15 * time.Second
	healthTimeout   = 2 * time.Second
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.New(cfg.Env, serviceName)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	log.Info("connected to mysql", zap.String("host", cfg.DB.Host), zap.String("database", cfg.DB.Name))

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	rc := cache.NewRedisCache(rdb)
	defer func() { _ = rc.Close() }()
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	bus, err := openBus(ctx, cfg.Bus, log)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()
	log.Info("connected to message bus", zap.String("driver", cfg.Bus.Driver))

	store := repository.NewInventoryStore(db)
	notifications := repository.NewNotificationRepo(db)
	effects := service.NewPostCommit(rc, service.NewBusPublisher(bus), cfg.Timeouts.Cache, cfg.Timeouts.BusPublish, log)

	engine := service.NewReservationEngine(store, effects, cfg.Timeouts.Store, log)
	events := service.NewEventService(repository.NewEventRepo(db), store, rc, effects, service.CacheSettings{
		TTL:             cfg.Cache.TTL,
		AvailabilityTTL: cfg.Cache.AvailabilityTTL,
		Timeout:         cfg.Timeouts.Cache,
	}, cfg.Timeouts.Store, log)

	e := router.New(router.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.CheckFunc{
			"mysql": db.PingContext,
			"redis": rc.Ping,
			"bus":   bus.Ping,
		}, healthTimeout),
		Users:         handler.NewUserHandler(service.NewUserService(repository.NewUserRepo(db), cfg.Timeouts.Store, log)),
		Events:        handler.NewEventHandler(events),
		Bookings:      handler.NewBookingHandler(engine, service.NewBookingQueries(repository.NewBookingRepo(db), cfg.Timeouts.Store, log)),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(notifications, cfg.Timeouts.Store, log)),
	}, cfg.RateLimit, rdb, log)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      e,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	consumer := queue.NewNotificationConsumer(bus, notifications, cfg.Timeouts.Store, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func openBus(ctx context.Context, cfg config.BusConfig, log *zap.Logger) (queue.Bus, error) {
	if cfg.Driver == config.BusKafka {
		k, err := queue.DialKafka(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return k, nil
	}
	r, err := queue.DialRabbitMQ(cfg, log)
	if err != nil {
		return nil, err
	}
	return r, nil
}
