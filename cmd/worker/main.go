package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"petidocs/internal"
	"petidocs/internal/config"
	"petidocs/internal/gdocs"
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

	processor := worker.NewProcessor(
		db,
		worker.NewJobStore(db),
		services.NewTemplateService(db, provider, zlog),
		services.NewGeneratorService(provider, cfg.Google.ClientRootFolderID, zlog),
		services.NewRecordService(db),
		provider,
		archive,
		cfg.Worker,
		zlog,
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency:    cfg.Worker.Concurrency,
			RetryDelayFunc: worker.RetryDelay(cfg.Worker.RetryBase),
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	zlog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
	if err := srv.Run(processor.Handler()); err != nil {
		zlog.Fatal("worker stopped", "error", err)
	}
}
