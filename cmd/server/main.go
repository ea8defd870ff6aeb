package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"petidocs/internal"
	"petidocs/internal/config"
	"petidocs/internal/gdocs"
	"petidocs/internal/handlers"
	"petidocs/internal/logger"
	"petidocs/internal/services"
	"petidocs/internal/storage"
	"petidocs/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := internal.Connect(cfg)
	if err != nil {
		zlog.Fatal("connect database", "error", err)
	}
	defer internal.Close(db)

	provider, err := gdocs.NewClient(ctx, cfg.Google.CredentialsPath)
	if err != nil {
		zlog.Fatal("init docs client", "error", err)
	}

	var archive *storage.ArchiveStore
	if cfg.Archive.BucketName != "" {
		archive, err = storage.NewArchiveStore(ctx, cfg.Archive.BucketName, cfg.Google.CredentialsPath)
		if err != nil {
			zlog.Fatal("init archive store", "error", err)
		}
		defer archive.Close()
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	templateService := services.NewTemplateService(db, provider, zlog)
	recordService := services.NewRecordService(db)
	activityLogService := services.NewActivityLogService(db, zlog)
	jobStore := worker.NewJobStore(db)

	retention := services.NewRetentionService(db, zlog, time.Hour, 30*24*time.Hour, 24*time.Hour)
	retention.Start()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	handlers.RegisterRoutes(r, cfg, handlers.Deps{
		Templates: handlers.NewTemplateHandler(templateService),
		Forms:     handlers.NewFormHandler(templateService, recordService, jobStore, asynqClient, cfg.Worker),
		Status:    handlers.NewStatusHandler(jobStore),
		Records:   handlers.NewRecordHandler(recordService, archive),
		Logs:      handlers.NewLogsHandler(activityLogService),
		Activity:  activityLogService,
	})

	// Graceful shutdown handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		zlog.Info("shutting down server")
		retention.Stop()
		internal.Close(db)
		os.Exit(0)
	}()

	zlog.Info("starting server", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("server stopped", "error", err)
	}
}
