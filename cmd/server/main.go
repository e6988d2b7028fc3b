package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/cart"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/checkout"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/events"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway/httpclient"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway/memory"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/httpapi"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/orders"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/payments"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	HTTPPort        string
	BackendURL      string // empty: run on the in-memory backend
	RedisAddr       string // empty: no payment-method cache
	KafkaBrokers    string // empty: no order event publishing
	OrdersDBPath    string // empty: no local order history
	MigrationsPath  string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		OrdersDBPath:    getEnv("ORDERS_DB_PATH", "orders.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "internal/orders/migrations"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	var (
		backend  gateway.CartBackend
		shipping gateway.ShippingService
		source   gateway.PaymentMethodSource
		orderSvc gateway.OrderService
	)
	if cfg.BackendURL != "" {
		client := httpclient.NewClient(cfg.BackendURL, cfg.RequestTimeout)
		backend, shipping, source, orderSvc = client, client, client, client
		log.Printf("using storefront backend at %s", cfg.BackendURL)
	} else {
		mem := memory.NewBackend()
		backend, shipping, source, orderSvc = mem, mem, mem, mem
		log.Printf("using in-memory backend with seeded catalog")
	}

	var cache payments.MethodCache
	if cfg.RedisAddr != "" {
		cache = payments.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.Printf("payment-method cache on redis at %s", cfg.RedisAddr)
	}
	registry := payments.NewRegistry(source, cache)

	store := cart.NewStore(backend)
	orchestrator := checkout.New(store, shipping, registry, orderSvc)

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()

	var ordersHandler *httpapi.OrdersHandler
	var repo *orders.Repository
	if cfg.OrdersDBPath != "" {
		var err error
		repo, err = orders.NewRepository(cfg.OrdersDBPath)
		if err != nil {
			log.Fatalf("failed to open orders database: %v", err)
		}
		defer repo.Close()
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatalf("failed to run orders migrations: %v", err)
		}
		orchestrator.WithRecorder(repo)
		ordersHandler = httpapi.NewOrdersHandler(repo)

		if cfg.KafkaBrokers != "" {
			poller := events.NewOutboxPoller(repo, strings.Split(cfg.KafkaBrokers, ",")...)
			go poller.Run(pollerCtx)
			log.Printf("publishing order events to kafka at %s", cfg.KafkaBrokers)
		}
	}

	router := httpapi.NewRouter(
		httpapi.NewCartHandler(store),
		httpapi.NewCheckoutHandler(orchestrator),
		ordersHandler,
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("commerce server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
