package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cfletch1/portfolio-service/internal/api"
	"github.com/cfletch1/portfolio-service/internal/config"
	"github.com/cfletch1/portfolio-service/internal/database"
	"github.com/cfletch1/portfolio-service/internal/kafka"
	"github.com/cfletch1/portfolio-service/internal/quotes"
	"github.com/cfletch1/portfolio-service/internal/valuation"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	feedClient := quotes.NewClient(quotes.Config{
		APIKey:  cfg.QuoteFeed.APIKey,
		BaseURL: cfg.QuoteFeed.BaseURL,
		Timeout: cfg.QuoteFeed.Timeout,
	})
	feed := quotes.NewCachingClient(feedClient, quotes.NewRedisKV(rdb))

	clock := valuation.SystemClock()
	engine := valuation.NewEngine(feed, clock)

	handler := api.NewHandler(db, engine, feed, clock, producer)
	router := api.SetupRoutes(handler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Portfolio service listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	waitForShutdown(server)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
