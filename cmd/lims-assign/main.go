package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lims-assign/internal/config"
	"lims-assign/internal/database"
	httpapi "lims-assign/internal/http"
	"lims-assign/internal/logger"
	"lims-assign/internal/repository"
	"lims-assign/internal/service"
	"lims-assign/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "lims-assign")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	kv := store.NewRedisKV(redisClient)

	testsRepo := store.NewCachedTestsRepository(repository.NewPostgresTestsRepository(db), kv, log)
	techniciansRepo := repository.NewPostgresTechniciansRepository(db)
	assignmentsRepo := repository.NewPostgresAssignmentsRepository(db)
	resultsRepo := repository.NewPostgresResultsRepository(db)

	registry := service.NewRegistryClient(
		cfg.Registry.BaseURL,
		time.Duration(cfg.Registry.TimeoutSeconds)*time.Second,
		log,
	)

	selection := service.NewSelectionService(testsRepo, techniciansRepo, log)
	assignmentSvc := service.NewAssignmentService(assignmentsRepo, techniciansRepo, testsRepo, selection, registry, log)
	resultSvc := service.NewResultService(resultsRepo, assignmentsRepo, testsRepo, log)

	router := httpapi.NewRouter(log)
	router.RegisterRoutes(
		httpapi.NewAssignmentHandler(assignmentSvc, log),
		httpapi.NewResultHandler(resultSvc, log),
		httpapi.NewTechnicianHandler(selection, log),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
