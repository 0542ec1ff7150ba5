package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/pressroom/internal/config"
	"github.com/ignite/pressroom/internal/genai"
	"github.com/ignite/pressroom/internal/repository/postgres"
	"github.com/ignite/pressroom/internal/worker"

	_ "github.com/lib/pq"
)

func main() {
	log.Println("Starting Pressroom publishing worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	gen := buildGenerator(cfg)

	retry := worker.NewRetryPolicy(cfg.Orchestrator.MaxAttempts,
		cfg.Orchestrator.BackoffBase(), cfg.Orchestrator.BackoffMax())
	executor := worker.NewExecutor(postgres.NewBlogRepo(db), gen, worker.NewSQLPostStore(db), retry)

	orchestrator := worker.NewOrchestrator(db, executor)
	orchestrator.SetTiming(cfg.Orchestrator.Tick(), cfg.Orchestrator.LeaseTTL(), cfg.Orchestrator.Workers)
	orchestrator.SetCompleteCancelsPending(cfg.Orchestrator.CompleteCancelsPending)

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable (%v), falling back to PG advisory locks", err)
		} else {
			orchestrator.SetRedisClient(redisClient)
			log.Println("Redis distributed locking enabled")
		}
	}

	if err := orchestrator.Start(); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recovery := worker.NewLeaseRecoveryWorker(db, cfg.Orchestrator.RecoveryInterval(), cfg.Orchestrator.MaxAttempts)
	go recovery.Start(ctx)
	log.Println("Lease recovery worker started")

	log.Println("Worker running...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	orchestrator.Stop()
	log.Println("Worker stopped")
}

// buildGenerator wires the content generation backend. The worker still runs
// without one; auto-generate posts then fail permanently with a clear error.
func buildGenerator(cfg *config.Config) genai.Generator {
	switch cfg.Generation.Provider {
	case "bedrock":
		client, err := genai.NewBedrockClient(context.Background(), cfg.Generation.Model,
			cfg.Generation.Timeout(), cfg.Generation.ReviewEnabled)
		if err != nil {
			log.Printf("Bedrock client init failed (%v), content generation disabled", err)
			return nil
		}
		log.Printf("Content generation: bedrock (%s)", cfg.Generation.Model)
		return client
	default:
		apiKey := os.Getenv(cfg.Generation.APIKeyEnv)
		if apiKey == "" {
			log.Printf("%s not set, content generation disabled", cfg.Generation.APIKeyEnv)
			return nil
		}
		log.Printf("Content generation: anthropic (%s)", cfg.Generation.Model)
		return genai.NewAnthropicClient(apiKey, cfg.Generation.Model,
			cfg.Generation.Timeout(), cfg.Generation.ReviewEnabled)
	}
}
