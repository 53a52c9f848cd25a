package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"reportforge/internal/api"
	"reportforge/internal/config"
	"reportforge/internal/database"
	"reportforge/internal/events"
	"reportforge/internal/generator"
	"reportforge/internal/intake"
	"reportforge/internal/monitor"
	"reportforge/internal/render"
	"reportforge/internal/report"
	"reportforge/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	gen, err := generator.NewGeminiGenerator(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("init content generator: %v", err)
	}

	mon := monitor.New(cfg.Report.GenerationBudget, cfg.Monitor.Retention, logger)
	go mon.RunRetentionLoop(ctx, cfg.Monitor.SweepInterval)

	store := report.NewStore(db)
	renderer := render.NewChromiumRenderer(cfg.Report.GenerationBudget)
	pipeline := report.NewPipeline(
		store,
		storageClient,
		gen,
		renderer,
		mon,
		report.ContractFromConfig(cfg.Report),
		cfg.Report.GenerationBudget,
		cfg.Report.BatchConcurrency,
		logger,
	)

	publisher := events.NewRedisPublisher(redisClient)
	guard := intake.NewGuard()
	handler := intake.NewHandler(pipeline, guard, publisher, logger)

	go func() {
		router := api.NewRouter(mon, store, storageClient, redisClient, logger)
		address := fmt.Sprintf(":%d", cfg.Ops.Port)
		logger.Info("ops listener started", slog.String("address", address))
		if err := router.Run(address); err != nil {
			log.Fatalf("ops listener stopped: %v", err)
		}
	}()

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	mux.Use(monitor.AsynqMiddleware(mon))
	mux.HandleFunc(events.TypeMatchScored, handler.HandleMatchScored)
	mux.HandleFunc(events.TypeReportRequested, handler.HandleReportRequested)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.String("model_id", gen.ModelID()),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
