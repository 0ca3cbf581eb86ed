package api

import (
	"context"

	"apartment-finder/internal/app/cbu"
	"apartment-finder/internal/app/config"
	"apartment-finder/internal/app/handler"
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/redis"
	"apartment-finder/internal/app/repository"
	"apartment-finder/internal/app/scheduler"
	"apartment-finder/internal/app/storage"
	"apartment-finder/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StartServer собирает все зависимости и запускает сервис
func StartServer() {
	logrus.Info("Starting server")

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	repo, err := repository.New(cfg.ControlDSN)
	if err != nil {
		logrus.Fatalf("ошибка инициализации репозитория: %v", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logrus.Fatalf("ошибка подключения к Redis: %v", err)
	}

	minioClient, err := storage.NewMinIOClient(
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.Bucket,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		// Сервис работоспособен без архива книг, загрузка просто не архивируется
		logrus.WithError(err).Error("MinIO недоступен, архив загрузок отключён")
		minioClient = nil
	}

	cbuClient := cbu.NewClient(cfg.CbuAPIURL)

	h := handler.NewHandler(repo, redisClient, cfg, minioClient, cbuClient)
	auth := middleware.NewAuthMiddleware(redisClient, cfg)
	broker := middleware.NewTenantBroker(repo)
	sched := scheduler.NewScheduler(repo, cbuClient)

	router := gin.Default()

	application := pkg.NewApp(cfg, router, h, auth, broker, sched)
	application.RunApp()
}
